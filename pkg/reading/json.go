package reading

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalJSON writes a Record. The device reports dose and dose rate as raw
// float32 values that may be NaN or infinite; those are written as the
// strings "NaN", "+Inf" and "-Inf" so every accepted frame stays recordable.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Dose deviceFloat `json:"dose"`
		Rate deviceFloat `json:"rate"`
	}{plain(r), deviceFloat(r.Dose), deviceFloat(r.Rate)})
}

// UnmarshalJSON reads a Record written by MarshalJSON. Plain numbers and the
// non-finite strings are both accepted.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		plain
		Dose deviceFloat `json:"dose"`
		Rate deviceFloat `json:"rate"`
	}{plain: plain(*r), Dose: deviceFloat(r.Dose), Rate: deviceFloat(r.Rate)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	r.Dose = float32(aux.Dose)
	r.Rate = float32(aux.Rate)
	return nil
}

// deviceFloat is a float32 whose JSON form tolerates NaN and infinities.
type deviceFloat float32

func (f deviceFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

func (f *deviceFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("reading: bad float %s: %w", s, err)
		}
		s = unquoted
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fmt.Errorf("reading: bad float %s: %w", string(data), err)
	}
	*f = deviceFloat(v)
	return nil
}
