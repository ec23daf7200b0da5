package models

// Thresholds is the process-wide notification configuration. A nil field
// is unset and disables the corresponding check.
type Thresholds struct {
	Humidity    *float64 `json:"humidity,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	PM25        *float64 `json:"pm25,omitempty"`
	Email       *string  `json:"email,omitempty"`
}

// Recipient returns the configured e-mail, or "" when none is usable.
func (t Thresholds) Recipient() string {
	if t.Email == nil {
		return ""
	}
	return *t.Email
}

// Clone returns a copy that shares no pointers with t.
func (t Thresholds) Clone() Thresholds {
	return Thresholds{
		Humidity:    cloneFloat(t.Humidity),
		Temperature: cloneFloat(t.Temperature),
		PM25:        cloneFloat(t.PM25),
		Email:       cloneString(t.Email),
	}
}

// Merge overwrites the fields of t that are set in update.
func (t Thresholds) Merge(update Thresholds) Thresholds {
	merged := t.Clone()
	if update.Humidity != nil {
		merged.Humidity = cloneFloat(update.Humidity)
	}
	if update.Temperature != nil {
		merged.Temperature = cloneFloat(update.Temperature)
	}
	if update.PM25 != nil {
		merged.PM25 = cloneFloat(update.PM25)
	}
	if update.Email != nil {
		merged.Email = cloneString(update.Email)
	}
	return merged
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
