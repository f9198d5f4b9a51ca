package kommo

// Estruturas da API v4 do Kommo. As listagens vêm embrulhadas em "_embedded".

type CustomFieldValue struct {
	Value any `json:"value"`
}

type CustomField struct {
	FieldID   int                `json:"field_id,omitempty"`
	FieldName string             `json:"field_name,omitempty"`
	FieldCode string             `json:"field_code,omitempty"`
	Values    []CustomFieldValue `json:"values,omitempty"`
}

type Contact struct {
	ID                 int           `json:"id"`
	Name               string        `json:"name"`
	CustomFieldsValues []CustomField `json:"custom_fields_values,omitempty"`
}

type Lead struct {
	ID                 int           `json:"id"`
	Name               string        `json:"name"`
	StatusID           int           `json:"status_id"`
	StatusName         string        `json:"status_name,omitempty"`
	PipelineID         int           `json:"pipeline_id"`
	CustomFieldsValues []CustomField `json:"custom_fields_values,omitempty"`
}

type Chat struct {
	ID        string `json:"id"`
	ContactID int    `json:"contact_id,omitempty"`
}

// User é um usuário ativo da conta (vendedor), fonte do registro dinâmico.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// CustomFieldString procura um campo customizado por código ou nome e
// devolve o primeiro valor como string.
func CustomFieldString(fields []CustomField, key string) string {
	for _, f := range fields {
		if f.FieldCode != key && f.FieldName != key {
			continue
		}
		if len(f.Values) == 0 {
			return ""
		}
		if s, ok := f.Values[0].Value.(string); ok {
			return s
		}
	}
	return ""
}
