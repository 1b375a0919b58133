package render

import (
	"html/template"
)

var cardTemplates = template.Must(template.New("cards").Parse(`
{{- define "application" -}}
<div class="card card-application">
  <div class="card-header">
    <span class="card-title">{{ .FullName }}</span>
    <span class="badge badge-{{ .Status }}">{{ .Status }}</span>
  </div>
  <div class="card-subtitle">{{ .JobName }}</div>
  <dl class="card-fields">
    <dt>Email</dt><dd><a href="mailto:{{ .Email }}">{{ .Email }}</a></dd>
    <dt>Phone</dt><dd>{{ .Phone }}</dd>
    {{- with .Experience }}
    <dt>Experience</dt><dd>{{ . }}</dd>
    {{- end }}
    {{- with .Location }}
    <dt>Location</dt><dd>{{ . }}</dd>
    {{- end }}
    <dt>Applied</dt><dd>{{ .AppliedAt }}</dd>
  </dl>
</div>
{{- end -}}

{{- define "job" -}}
<div class="card card-job">
  <div class="card-header">
    <span class="card-title">{{ .Position }}</span>
    <span class="badge badge-{{ .Status }}">{{ .Status }}</span>
  </div>
  <div class="card-subtitle">{{ .Company }}{{ with .Location }} · {{ . }}{{ end }}</div>
  <dl class="card-fields">
    <dt>Type</dt><dd>{{ .EmploymentType }}, {{ .WorkMode }}</dd>
    <dt>Salary</dt><dd>{{ .SalaryMin }} – {{ .SalaryMax }}</dd>
    <dt>Applicants</dt><dd>{{ .Applicants }}</dd>
    <dt>Posted</dt><dd>{{ .PostedAt }}</dd>
  </dl>
</div>
{{- end -}}
`))
