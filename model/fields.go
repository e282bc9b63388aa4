package model

import "time"

// fields collects the set members of a patch keyed by their stored name.
type fields map[string]any

func (f fields) setString(name string, v *string) {
	if v != nil {
		f[name] = *v
	}
}

func (f fields) setFloat(name string, v *float64) {
	if v != nil {
		f[name] = *v
	}
}

func (f fields) setInt(name string, v *int) {
	if v != nil {
		f[name] = *v
	}
}

func (f fields) setBool(name string, v *bool) {
	if v != nil {
		f[name] = *v
	}
}

func (f fields) setTime(name string, v *time.Time) {
	if v != nil {
		f[name] = Timestamp(*v)
	}
}

// Timestamp converts t to UTC at millisecond precision, the finest precision
// every backend keeps.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
