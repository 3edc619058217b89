package encode

type EncodeOption func(*EncState)

func Indent(n int) EncodeOption {
	return func(es *EncState) { es.indent = n }
}

func EncodeColors(c *Colors) EncodeOption {
	return func(es *EncState) { es.Color = c.Color }
}

// EncodeWireTypes shows the wire type name hint of values which carry one.
func EncodeWireTypes(v bool) EncodeOption {
	return func(es *EncState) { es.wireTypes = v }
}
