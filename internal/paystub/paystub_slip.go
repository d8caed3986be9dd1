package paystub

import (
	"bytes"
	"fmt"
	"strings"
)

// slipLines lays out the printable content of a paystub slip.
func slipLines(stub Paystub) []string {
	lines := []string{
		"Paystub",
		fmt.Sprintf("Employee: %s (%s)", stub.EmployeeName, stub.EmployeeNumber),
		fmt.Sprintf("Period: %s to %s", stub.PeriodStart.Format("2006-01-02"), stub.PeriodEnd.Format("2006-01-02")),
		fmt.Sprintf("Pay date: %s", stub.PayDate.Format("2006-01-02")),
		"",
		fmt.Sprintf("Gross pay:           %10.2f", stub.GrossPay),
		fmt.Sprintf("Federal tax:         %10.2f", stub.FederalTax),
		fmt.Sprintf("Provincial tax:      %10.2f", stub.ProvincialTax),
		fmt.Sprintf("CPP:                 %10.2f", stub.CPP),
		fmt.Sprintf("EI:                  %10.2f", stub.EI),
		fmt.Sprintf("Other deductions:    %10.2f", stub.OtherDeductions),
	}
	if stub.Reimbursements > 0 {
		lines = append(lines, fmt.Sprintf("Reimbursements:      %10.2f (non-taxable)", stub.Reimbursements))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Net pay:             %10.2f", stub.NetPay),
	)
	return lines
}

// buildSlipPDF writes a single-page PDF by hand. Good enough for a paystub;
// no font subsetting, no layout engine.
func buildSlipPDF(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		lines = []string{"Paystub"}
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n50 800 Td\n")
	for i, line := range lines {
		escaped := pdfEscape(line)
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", escaped))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", escaped))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects)+1)
	offsets = append(offsets, 0)

	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(offsets); i++ {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets), xrefStart))

	return out.Bytes(), nil
}

func pdfEscape(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return replacer.Replace(v)
}
