package step

// Base provides common plumbing for steps (identity + declared fields).
type Base struct {
	info   Info
	fields []Field
}

// NewBase seeds the helper with step info and its fields.
func NewBase(info Info, fields ...Field) Base {
	return Base{info: info, fields: append([]Field{}, fields...)}
}

// Info implements Step.Info.
func (b *Base) Info() Info {
	return b.info
}

// Fields implements Step.Fields.
func (b *Base) Fields() []Field {
	return append([]Field{}, b.fields...)
}
