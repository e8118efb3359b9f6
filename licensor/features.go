package licensor

import "sort"

// Features maps case-sensitive feature names to their string values.
// Iteration order carries no meaning; encoders impose their own order.
type Features map[string]string

// Set stores value under name, replacing any previous value.
func (f Features) Set(name, value string) {
	f[name] = value
}

// Get returns the value stored under name.
func (f Features) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// Delete removes name from the set.
func (f Features) Delete(name string) {
	delete(f, name)
}

// Len returns the number of features.
func (f Features) Len() int {
	return len(f)
}

// Names returns the feature names sorted byte-wise.
func (f Features) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
