package routing

// Parameters are the named values handed to handlers. They come from the
// URL query, from dynamic segment captures and from proxy overrides, in
// increasing precedence.
type Parameters map[string]string

// Clone returns a copy of p. A nil p clones to an empty map.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding p overlaid by every layer in order.
// Later layers win on key collisions. p is not modified.
func (p Parameters) Merge(layers ...map[string]string) Parameters {
	size := len(p)
	for _, layer := range layers {
		size += len(layer)
	}

	out := make(Parameters, size)
	for k, v := range p {
		out[k] = v
	}
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
