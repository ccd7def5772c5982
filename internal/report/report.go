// Package report renders insight sets into the run's output artifacts: a
// plain-text report and a PNG dashboard.
package report

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salespipe/internal/insight"
)

const dayFormat = "2006-01-02"

// Text renders every populated section of s in fixed order. Absent sections
// are omitted, so a minimal input still yields a valid report.
func Text(s insight.Set) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("AUTOMATED BUSINESS INSIGHTS REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")

	if st := s.BasicStats; st != nil {
		section(&b, "DATA OVERVIEW", 20)
		fmt.Fprintf(&b, "Total Rows: %d\n", st.Rows)
		fmt.Fprintf(&b, "Total Columns: %d\n", st.Columns)
		fmt.Fprintf(&b, "Numeric Columns: %d\n", st.Numeric)
		fmt.Fprintf(&b, "Text Columns: %d\n", st.Text)
		fmt.Fprintf(&b, "Date Columns: %d\n", st.DateTime)
		fmt.Fprintf(&b, "Categorical Columns: %d\n", st.Categorical)
	}

	if len(s.Financial) > 0 {
		section(&b, "FINANCIAL SUMMARY", 25)
		for _, f := range s.Financial {
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(f.Column))
			fmt.Fprintf(&b, "  Count: %d\n", f.Count)
			fmt.Fprintf(&b, "  Total: %s\n", p.Sprintf("%.2f", f.Sum))
			fmt.Fprintf(&b, "  Mean: %s\n", p.Sprintf("%.2f", f.Mean))
			fmt.Fprintf(&b, "  Median: %s\n", p.Sprintf("%.2f", f.Median))
			fmt.Fprintf(&b, "  Min: %s\n", p.Sprintf("%.2f", f.Min))
			fmt.Fprintf(&b, "  Max: %s\n", p.Sprintf("%.2f", f.Max))
		}
	}

	if len(s.Categorical) > 0 {
		section(&b, "CATEGORICAL ANALYSIS", 30)
		for _, c := range s.Categorical {
			fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(c.Column))
			fmt.Fprintf(&b, "  Unique values: %d\n", c.Distinct)
			b.WriteString("  Top categories:\n")
			for _, vc := range c.Top {
				fmt.Fprintf(&b, "    %s: %d\n", vc.Value, vc.Count)
			}
		}
	}

	if ta := s.TimeAnalysis; ta != nil {
		section(&b, "TIME SERIES ANALYSIS", 30)
		fmt.Fprintf(&b, "\nDAILY %s:\n", strings.ToUpper(ta.ValueColumn))
		fmt.Fprintf(&b, "  Date Column: %s\n", ta.DateColumn)
		fmt.Fprintf(&b, "  Daily Mean: %s\n", p.Sprintf("%.2f", ta.DailyMean))
		fmt.Fprintf(&b, "  Best Day: %s (%s)\n",
			ta.BestDay.Format(dayFormat), p.Sprintf("%.2f", ta.BestTotal))
		fmt.Fprintf(&b, "  Worst Day: %s (%s)\n",
			ta.WorstDay.Format(dayFormat), p.Sprintf("%.2f", ta.WorstTotal))
	}

	if len(s.Correlations) > 0 {
		section(&b, "STRONG CORRELATIONS", 25)
		for _, c := range s.Correlations {
			fmt.Fprintf(&b, "%s <-> %s: %.3f\n", c.Col1, c.Col2, c.Coefficient)
		}
	}

	return b.String()
}

// WriteText writes the rendered report to path, overwriting any previous run.
func WriteText(path string, s insight.Set) error {
	if err := os.WriteFile(path, []byte(Text(s)), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func section(b *strings.Builder, title string, rule int) {
	b.WriteString("\n" + title + "\n")
	b.WriteString(strings.Repeat("-", rule) + "\n")
}
