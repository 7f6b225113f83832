package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Code is a categorical backend value. The backend emits the same field as a
// JSON number on some endpoints and as a string on others; Code accepts both
// and always holds the decimal text.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*c = Code(strconv.FormatInt(i, 10))
		return nil
	}
	*c = Code(n.String())
	return nil
}

func (c Code) String() string { return string(c) }

// URLSet decodes either a JSON array of URLs or an object keyed by push IDs,
// which is how the backend stores media lists, into an ordered slice.
type URLSet []string

func (u *URLSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = URLSet{}
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*u = list
		return nil
	}
	var keyed map[string]string
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}
	*u = sortedValues(keyed)
	return nil
}

// Rating is a review score. The backend sends it as a JSON number or as a
// numeric string; anything unparseable decodes to zero.
type Rating float64

func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*r = 0
			return nil
		}
		*r = Rating(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Rating(v)
	return nil
}
