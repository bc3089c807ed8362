package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/wavebot/internal/model"
)

// detailedResponse is a WAVE reporttype=3 response used across tests.
const detailedResponse = `{
  "status": {"success": true, "httpstatuscode": 200},
  "statistics": {"pagetitle": "Example Domain", "totalelements": 1234, "allitemcount": 6},
  "categories": {
    "error": {
      "description": "Errors",
      "count": 2,
      "items": {
        "alt_missing": {
          "id": "alt_missing",
          "description": "Missing alternative text",
          "count": 2,
          "xpaths": ["/html/body/img[1]", "/html/body/img[2]"]
        }
      }
    },
    "feature": {
      "description": "Features",
      "count": 5,
      "items": {"alt": {"id": "alt", "description": "Alternative text", "count": 5, "xpaths": ["/html/body/img[3]"]}}
    },
    "contrast": {
      "description": "Contrast Errors",
      "count": 2,
      "items": {
        "contrast": {
          "id": "contrast",
          "description": "Very low contrast",
          "count": 2,
          "contrastdata": [[1.53, "#777777", "#999999", false], [21, "#000000", "#FFFFFF", true]]
        }
      }
    },
    "structure": {"description": "Structural Elements", "count": 7, "items": {}},
    "alert": {
      "description": "Alerts",
      "count": 1,
      "items": {"link_redundant": {"id": "link_redundant", "description": "Redundant link", "count": 1}}
    },
    "aria": {"description": "ARIA", "count": 3, "items": {}}
  }
}`

// decodeReport decodes a WAVE response or fails the test.
func decodeReport(t *testing.T, body string) *model.AccessibilityReport {
	t.Helper()

	var report model.AccessibilityReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		t.Fatalf("failed to decode test report: %v", err)
	}
	return &report
}

// loadReport decodes a saved WAVE response from testdata with DecodeReport.
func loadReport(t *testing.T, name string) *model.AccessibilityReport {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	report, err := model.DecodeReport(data)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", name, err)
	}
	return report
}

// summaryReport builds a report with category counts only.
func summaryReport(counts ...any) *model.AccessibilityReport {
	categories := model.NewCategories()
	for i := 0; i+1 < len(counts); i += 2 {
		key, _ := counts[i].(string)
		count, _ := counts[i+1].(int)
		categories.Set(key, model.Category{Description: key, Count: count})
	}
	return &model.AccessibilityReport{
		Status:     model.StatusOK,
		Categories: categories,
	}
}
