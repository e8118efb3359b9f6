package licensor

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the text form of Date features.
const DateLayout = "2006-01-02"

// Kind enumerates the typed feature encodings.
type Kind int

const (
	KindInteger Kind = iota + 1
	KindDate
	KindIdentifier
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDate:
		return "date"
	case KindIdentifier:
		return "identifier"
	case KindURL:
		return "url"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a typed feature value. The set of implementations is closed:
// IntValue, DateValue, IDValue and URLValue.
type Value interface {
	Kind() Kind
	// String returns the canonical text stored in the feature set.
	String() string
	isValue()
}

// IntValue is an Integer feature, stored in base 10.
type IntValue int64

func (IntValue) Kind() Kind       { return KindInteger }
func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }
func (IntValue) isValue()         {}

// DateValue is a Date feature. Only the calendar date in the value's own
// location is stored.
type DateValue struct{ time.Time }

func (DateValue) Kind() Kind       { return KindDate }
func (v DateValue) String() string { return v.Time.Format(DateLayout) }
func (DateValue) isValue()         {}

// IDValue is an Identifier feature in hyphenated hex UUID form.
type IDValue uuid.UUID

func (IDValue) Kind() Kind       { return KindIdentifier }
func (v IDValue) String() string { return uuid.UUID(v).String() }
func (IDValue) isValue()         {}

// URLValue is a URL feature.
type URLValue struct{ *url.URL }

func (URLValue) Kind() Kind { return KindURL }
func (v URLValue) String() string {
	if v.URL == nil {
		return ""
	}
	return v.URL.String()
}
func (URLValue) isValue() {}

var (
	errUUIDForm    = errors.New("not a hyphenated 36 character UUID")
	errRelativeURL = errors.New("URL has no scheme")
)

// decodeValue parses s as kind k. An unknown kind is a programming error.
func decodeValue(k Kind, s string) (Value, error) {
	switch k {
	case KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return IntValue(n), nil
	case KindDate:
		t, err := time.ParseInLocation(DateLayout, s, time.Local)
		if err != nil {
			return nil, err
		}
		return DateValue{t}, nil
	case KindIdentifier:
		if len(s) != 36 {
			return nil, errUUIDForm
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return IDValue(id), nil
	case KindURL:
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" {
			return nil, errRelativeURL
		}
		return URLValue{u}, nil
	default:
		panic(fmt.Sprintf("licensor: unsupported feature kind %d", int(k)))
	}
}

// SetValue stores v under name using its canonical text form.
func (d *Document) SetValue(name string, v Value) {
	d.SetFeature(name, v.String())
}

// Value decodes the feature name as kind k. Absent or undecodable features
// yield a *TypeCoercionError. Passing a Kind outside the declared constants panics.
func (d *Document) Value(name string, k Kind) (Value, error) {
	raw, ok := d.features.Get(name)
	if !ok {
		if k < KindInteger || k > KindURL {
			panic(fmt.Sprintf("licensor: unsupported feature kind %d", int(k)))
		}
		return nil, &TypeCoercionError{Feature: name, Kind: k, Err: ErrFeatureNotFound}
	}
	v, err := decodeValue(k, raw)
	if err != nil {
		return nil, &TypeCoercionError{Feature: name, Kind: k, Value: raw, Err: err}
	}
	return v, nil
}

// SetInt stores an Integer feature.
func (d *Document) SetInt(name string, n int64) {
	d.SetValue(name, IntValue(n))
}

// Int decodes an Integer feature.
func (d *Document) Int(name string) (int64, error) {
	v, err := d.Value(name, KindInteger)
	if err != nil {
		return 0, err
	}
	return int64(v.(IntValue)), nil
}

// SetDate stores the calendar date of t as a Date feature.
func (d *Document) SetDate(name string, t time.Time) {
	d.SetValue(name, DateValue{t})
}

// Date decodes a Date feature as local midnight of the stored day.
func (d *Document) Date(name string) (time.Time, error) {
	v, err := d.Value(name, KindDate)
	if err != nil {
		return time.Time{}, err
	}
	return v.(DateValue).Time, nil
}

// SetID stores an Identifier feature.
func (d *Document) SetID(name string, id uuid.UUID) {
	d.SetValue(name, IDValue(id))
}

// ID decodes an Identifier feature.
func (d *Document) ID(name string) (uuid.UUID, error) {
	v, err := d.Value(name, KindIdentifier)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.UUID(v.(IDValue)), nil
}

// SetURL stores a URL feature.
func (d *Document) SetURL(name string, u *url.URL) {
	d.SetValue(name, URLValue{u})
}

// URL decodes a URL feature.
func (d *Document) URL(name string) (*url.URL, error) {
	v, err := d.Value(name, KindURL)
	if err != nil {
		return nil, err
	}
	return v.(URLValue).URL, nil
}

// Well-known feature names.
const (
	FeatureLicenseID     = "licenseId"
	FeatureExpiryDate    = "expiryDate"
	FeatureRevocationURL = "revocationUrl"
	FeatureMachineID     = "machineId"
	FeatureMaxCPUPerNode = "maxCpuPerNode"
)

// SetLicenseID stores the license identifier.
func (d *Document) SetLicenseID(id uuid.UUID) {
	d.SetID(FeatureLicenseID, id)
}

// GenerateLicenseID stores and returns a new random license identifier.
func (d *Document) GenerateLicenseID() uuid.UUID {
	id := uuid.New()
	d.SetLicenseID(id)
	return id
}

// LicenseID returns the license identifier if present and well formed.
func (d *Document) LicenseID() (uuid.UUID, bool) {
	id, err := d.ID(FeatureLicenseID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
