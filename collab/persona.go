package collab

// Persona 观众身份
type Persona interface {
	DisplayName() string
}

type StaticPersona string

func (p StaticPersona) DisplayName() string {
	if p == "" {
		return "我"
	}
	return string(p)
}
