package email

// PreviewData contains sample template data for local preview/testing,
// keyed by template name.
var PreviewData = map[Template]LifecycleData{
	TemplateLifecycle: {
		Title:       "Tarea creada",
		TareaID:     "65f1c0ffee0ddba11ca7d00d",
		Description: "Comprar pan",
		Status:      "PENDIENTE",
		OccurredAt:  "2024-03-01T10:00:00Z",
	},
}
