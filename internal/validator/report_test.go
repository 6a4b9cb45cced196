package validator

import (
	"strings"
	"testing"

	"gdpetl/internal/formatter"
	"gdpetl/internal/models"
	"gdpetl/pkg/metadata"
)

const validReport = `# Countries with GDP > 100 billion USD

- Source: https://example.com/gdp

| Country       | Region   | GDP (Billion USD) | Year |
| ------------- | -------- | ----------------- | ---- |
| United States | Americas | 26854.6           | 2023 |
| Germany       | Europe   | 4500              | 2023 |

Trailing text | not a row`

func TestValidateReport_Valid(t *testing.T) {
	result := NewReportValidator(100).ValidateReport(validReport)

	if !result.IsValid {
		t.Fatalf("Expected valid report, got errors: %v", result.Messages())
	}

	if result.Stats.TotalRows != 2 || result.Stats.ValidRows != 2 {
		t.Errorf("Unexpected stats: %+v", result.Stats)
	}

	if len(result.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", result.Warnings)
	}

	if result.Err() != nil {
		t.Errorf("Err() = %v, want nil", result.Err())
	}
}

func TestValidateReport_RenderedReport(t *testing.T) {
	summary := models.RunSummary{Source: "https://example.com/gdp"}
	result := models.QueryResult{
		ThresholdBillion: 100,
		Records: []models.GDPRecord{
			{Country: "Trinidad | Tobago", Region: "Americas", GDPEstimate: 120.5, Year: 2022},
		},
	}

	body := formatter.RenderReportBody(summary, result)

	check := NewReportValidator(100).ValidateReport(body)
	if !check.IsValid {
		t.Fatalf("Rendered report should be valid: %v\n%s", check.Messages(), body)
	}
}

func TestValidateReport_EmptyResultTable(t *testing.T) {
	summary := models.RunSummary{Source: "x"}
	body := formatter.RenderReportBody(summary, models.QueryResult{ThresholdBillion: 1e9})

	check := NewReportValidator(1e9).ValidateReport(body)
	if !check.IsValid || check.Stats.TotalRows != 0 {
		t.Errorf("Expected valid empty table, got %s: %v", check, check.Messages())
	}
}

func TestValidateReport_RowErrors(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
	}{
		{name: "At threshold", row: "| Kenya | Africa | 100 | 2023 |", field: "gdp"},
		{name: "Not a number", row: "| Kenya | Africa | n/a | 2023 |", field: "gdp"},
		{name: "Empty country", row: "|  | Africa | 113.4 | 2023 |", field: "country"},
		{name: "Bad year", row: "| Kenya | Africa | 113.4 | 23 |", field: "year"},
		{name: "Short row", row: "| Kenya | 113.4 | 2023 |", field: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := "| Country | Region | GDP (Billion USD) | Year |\n| --- | --- | --- | --- |\n" + tt.row

			result := NewReportValidator(100).ValidateReport(md)
			if result.IsValid {
				t.Fatal("Expected invalid report")
			}

			if result.Stats.InvalidRows != 1 {
				t.Errorf("Expected 1 invalid row, got %d", result.Stats.InvalidRows)
			}

			if result.Errors[0].Field != tt.field {
				t.Errorf("Expected error on field %q, got %q", tt.field, result.Errors[0].Field)
			}

			if result.Errors[0].Line != 3 {
				t.Errorf("Expected error on line 3, got %d", result.Errors[0].Line)
			}

			if result.Err() == nil {
				t.Error("Err() = nil for an invalid result")
			}
		})
	}
}

func TestValidateReport_OrderWarning(t *testing.T) {
	md := "| Country | Region | GDP (Billion USD) | Year |\n| --- | --- | --- | --- |\n" +
		"| Germany | Europe | 4500 | 2023 |\n" +
		"| United States | Americas | 26854.6 | 2023 |"

	result := NewReportValidator(100).ValidateReport(md)
	if !result.IsValid {
		t.Fatalf("Order is a warning, not an error: %v", result.Messages())
	}

	if len(result.Warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", result.Warnings)
	}
}

func TestValidateReport_WrongHeader(t *testing.T) {
	result := NewReportValidator(100).ValidateReport("| Name | GDP |\n| --- | --- |\n| a | 1 |")

	if result.IsValid || result.Errors[0].Field != "header" {
		t.Errorf("Expected header error, got %v", result.Messages())
	}
}

func TestValidateReport_NoTable(t *testing.T) {
	result := NewReportValidator(100).ValidateReport("# Nothing here")

	if result.IsValid {
		t.Fatal("Expected invalid report")
	}

	if !strings.Contains(result.Messages()[0], "no result table") {
		t.Errorf("Unexpected message: %v", result.Messages())
	}
}

func TestValidateIntegrity(t *testing.T) {
	v := NewReportValidator(100)
	signed := metadata.Sign(validReport, "https://example.com/gdp", true)

	if result := v.ValidateIntegrity(signed); !result.IsValid {
		t.Errorf("Expected intact report, got %v", result.Messages())
	}

	tampered := strings.Replace(signed, "4500", "4600", 1)

	result := v.ValidateIntegrity(tampered)
	if result.IsValid {
		t.Fatal("Expected tampered report to fail")
	}

	if !strings.Contains(result.Messages()[0], ErrIntegrity.Error()) {
		t.Errorf("Unexpected message: %v", result.Messages())
	}
}
