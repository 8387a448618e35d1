package formvalidator

import (
	"github.com/goliatone/go-formvalidator/pkg/errormsg"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// Report summarises one validation pass.
type Report struct {
	Valid    bool               `json:"valid"`
	Fields   []FieldReport      `json:"fields"`
	Results  []formstate.Result `json:"-"`
	Messages []errormsg.Message `json:"-"`
}

// FieldReport is the serialisable outcome for one field. Values are left
// out so passwords never reach logs or responses.
type FieldReport struct {
	Name    string `json:"name"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func newReport(results []formstate.Result, messages []errormsg.Message) Report {
	texts := make(map[string]string, len(messages))
	for _, msg := range messages {
		if _, ok := texts[msg.Field]; !ok {
			texts[msg.Field] = msg.Text
		}
	}

	report := Report{
		Valid:    true,
		Fields:   make([]FieldReport, 0, len(results)),
		Results:  results,
		Messages: messages,
	}
	for _, result := range results {
		if !result.Valid {
			report.Valid = false
		}
		report.Fields = append(report.Fields, FieldReport{
			Name:    result.Field.Name,
			Valid:   result.Valid,
			Message: texts[result.Field.Name],
		})
	}
	return report
}

// Errors maps each invalid field to its displayed message.
func (r Report) Errors() map[string]string {
	out := make(map[string]string)
	for _, field := range r.Fields {
		if field.Valid {
			continue
		}
		out[field.Name] = field.Message
	}
	return out
}
