package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"AirBox.influxDB/internal/models"
)

const alertEmailHTML = `<h2>AirBox Threshold Alert</h2>
<p>The following sensors exceeded your configured thresholds:</p>
<ul>
{{- range .}}
  <li>
    <strong>{{upper .ThresholdType}}</strong> alert on {{.SensorName}} ({{.MAC}})<br/>
    Value: {{printf "%.2f" .ActualValue}} (threshold: {{.ThresholdValue}})<br/>
    Time: {{.Time.Format "2006-01-02 15:04:05 MST"}}
  </li>
{{- end}}
</ul>
<p>You are receiving this because notifications are enabled on the AirBox service.</p>
`

var alertEmailTemplate = template.Must(template.New("alert-email").
	Funcs(template.FuncMap{"upper": strings.ToUpper}).
	Parse(alertEmailHTML))

// Subject is the e-mail subject for a batch of n alerts.
func Subject(n int) string {
	suffix := ""
	if n > 1 {
		suffix = "s"
	}
	return fmt.Sprintf("AirBox Alert: %d Threshold%s Exceeded", n, suffix)
}

// RenderAlertEmail renders the HTML body listing every alert.
func RenderAlertEmail(alerts []models.Alert) (string, error) {
	var buf bytes.Buffer
	if err := alertEmailTemplate.Execute(&buf, alerts); err != nil {
		return "", fmt.Errorf("rendering alert e-mail: %w", err)
	}
	return buf.String(), nil
}
