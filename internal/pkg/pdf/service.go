// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/domain/pharmacy"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// GenerateReceipt generates a PDF receipt for a dispense record
func (s *Service) GenerateReceipt(record *pharmacy.DispenseRecord, drugNames map[uint]string) (*bytes.Buffer, error) {
	// Prepare template data
	data := ReceiptData{
		RecordNumber: record.RecordNumber,
		DispenseDate: record.CreatedAt.Format("January 2, 2006 15:04"),
		GeneratedAt:  time.Now().Format("January 2, 2006 15:04"),
		TotalAmount:  formatCents(record.TotalAmount),
		Facility: FacilityInfo{
			Name:    s.config.App.FacilityName,
			Address: s.config.App.FacilityAddress,
			Phone:   s.config.App.FacilityPhone,
			Email:   s.config.App.FacilityEmail,
		},
	}
	for _, line := range record.Lines {
		data.Lines = append(data.Lines, ReceiptLine{
			DrugName:    drugNames[line.DrugID],
			BatchNumber: line.BatchNumber,
			Quantity:    line.Quantity,
			UnitPrice:   formatCents(line.UnitPrice),
			TotalPrice:  formatCents(line.TotalPrice),
		})
	}

	// Generate HTML from template
	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	// Convert HTML to PDF
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	// Set PDF options
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	// Add page from HTML content
	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)

	pdfg.AddPage(page)

	// Create PDF
	err = pdfg.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data ReceiptData) (string, error) {
	tmpl := template.Must(template.New("receipt").Parse(receiptTemplate))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func formatCents(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	RecordNumber string
	DispenseDate string
	GeneratedAt  string
	TotalAmount  string
	Lines        []ReceiptLine
	Facility     FacilityInfo
}

// ReceiptLine is one dispensed batch on the receipt
type ReceiptLine struct {
	DrugName    string
	BatchNumber string
	Quantity    int
	UnitPrice   string
	TotalPrice  string
}

// FacilityInfo represents the dispensing facility
type FacilityInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Receipt HTML template
const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Dispense Receipt {{.RecordNumber}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .receipt-title {
            font-size: 24px;
            font-weight: bold;
            color: #0f766e;
            margin-bottom: 10px;
        }
        .facility-info {
            font-size: 12px;
            color: #555;
        }
        .receipt-details {
            margin-bottom: 30px;
        }
        .receipt-details td {
            padding: 5px 0;
            vertical-align: top;
        }
        .receipt-details .label {
            font-weight: bold;
            width: 150px;
        }
        .lines-table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
        }
        .lines-table th,
        .lines-table td {
            border: 1px solid #ddd;
            padding: 10px 8px;
            text-align: left;
        }
        .lines-table th {
            background-color: #f8f9fa;
            font-weight: bold;
        }
        .lines-table .qty-col,
        .lines-table .price-col {
            text-align: right;
            width: 80px;
        }
        .total {
            float: right;
            font-size: 16px;
            font-weight: bold;
        }
        .footer {
            clear: both;
            margin-top: 40px;
            font-size: 11px;
            color: #888;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="receipt-title">Pharmacy Dispense Receipt</div>
        <div class="facility-info">
            {{.Facility.Name}}<br>
            {{if .Facility.Address}}{{.Facility.Address}}<br>{{end}}
            {{if .Facility.Phone}}Phone: {{.Facility.Phone}}<br>{{end}}
            {{if .Facility.Email}}{{.Facility.Email}}{{end}}
        </div>
    </div>

    <div class="receipt-details">
        <table>
            <tr><td class="label">Receipt Number:</td><td>{{.RecordNumber}}</td></tr>
            <tr><td class="label">Dispensed:</td><td>{{.DispenseDate}}</td></tr>
        </table>
    </div>

    <table class="lines-table">
        <thead>
            <tr>
                <th>Drug</th>
                <th>Batch</th>
                <th class="qty-col">Qty</th>
                <th class="price-col">Unit Price</th>
                <th class="price-col">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr>
                <td>{{.DrugName}}</td>
                <td>{{.BatchNumber}}</td>
                <td class="qty-col">{{.Quantity}}</td>
                <td class="price-col">{{.UnitPrice}}</td>
                <td class="price-col">{{.TotalPrice}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="total">Total: {{.TotalAmount}}</div>

    <div class="footer">Generated {{.GeneratedAt}}</div>
</body>
</html>
`
