package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

// LocalLayout is the backend's zone-less timestamp format.
const LocalLayout = "2006-01-02T15:04:05"

// Timestamp decodes both RFC 3339 and zone-less local timestamps. Zone-less
// values are read in the client's local zone.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		return nil
	}

	v, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// ParseTimestamp reads an RFC 3339 timestamp, or a zone-less one in the
// local zone with or without seconds.
func ParseTimestamp(s string) (time.Time, error) {
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return v, nil
	}
	for _, layout := range []string{LocalLayout + ".999999999", LocalLayout, "2006-01-02T15:04", "2006-01-02 15:04"} {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return v, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// MarshalJSON writes the zone-less form the backend expects.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Local().Format(LocalLayout) + `"`), nil
}

func (t *Timestamp) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type stepDTO struct {
	StepNumber       int               `json:"stepNumber"`
	Type             string            `json:"type"`
	TypeName         string            `json:"typeName"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	ScheduledTime    *Timestamp        `json:"scheduledTime"`
	ActualTime       *Timestamp        `json:"actualTime"`
	DurationMinutes  int               `json:"durationMinutes"`
	Temperature      float64           `json:"temperature"`
	Status           domain.StepStatus `json:"status"`
	NotificationSent bool              `json:"notificationSent"`
	Note             string            `json:"note"`
}

type sessionDTO struct {
	ID                      string               `json:"id"`
	UserID                  string               `json:"userId"`
	RecipeID                string               `json:"recipeId"`
	Name                    string               `json:"name"`
	PizzaStyle              string               `json:"pizzaStyle"`
	PizzaStyleName          string               `json:"pizzaStyleName"`
	NumberOfPizzas          int                  `json:"numberOfPizzas"`
	TargetBakeTime          *Timestamp           `json:"targetBakeTime"`
	AdjustedBakeTime        *Timestamp           `json:"adjustedBakeTime"`
	Steps                   []stepDTO            `json:"steps"`
	Status                  domain.SessionStatus `json:"status"`
	Notes                   string               `json:"notes"`
	SMSNotificationsEnabled bool                 `json:"smsNotificationsEnabled"`
	NotificationPhone       string               `json:"notificationPhone"`
	ReminderMinutesBefore   int                  `json:"reminderMinutesBefore"`
	CompletionPercentage    float64              `json:"completionPercentage"`
	CreatedAt               *Timestamp           `json:"createdAt"`
	LastUpdatedAt           *Timestamp           `json:"lastUpdatedAt"`
}

func (d *sessionDTO) toDomain() *domain.ActiveSession {
	s := &domain.ActiveSession{
		ID:                      d.ID,
		UserID:                  d.UserID,
		RecipeID:                d.RecipeID,
		Name:                    d.Name,
		PizzaStyle:              d.PizzaStyle,
		PizzaStyleName:          d.PizzaStyleName,
		NumberOfPizzas:          d.NumberOfPizzas,
		TargetBakeTime:          d.TargetBakeTime.ptr(),
		AdjustedBakeTime:        d.AdjustedBakeTime.ptr(),
		Status:                  d.Status,
		Notes:                   d.Notes,
		SMSNotificationsEnabled: d.SMSNotificationsEnabled,
		NotificationPhone:       d.NotificationPhone,
		ReminderMinutesBefore:   d.ReminderMinutesBefore,
		CompletionPercentage:    d.CompletionPercentage,
		CreatedAt:               d.CreatedAt.ptr(),
		LastUpdatedAt:           d.LastUpdatedAt.ptr(),
		Steps:                   make([]domain.ScheduledStep, 0, len(d.Steps)),
	}
	for _, st := range d.Steps {
		s.Steps = append(s.Steps, domain.ScheduledStep{
			StepNumber:       st.StepNumber,
			Type:             st.Type,
			TypeName:         st.TypeName,
			Title:            st.Title,
			Description:      st.Description,
			ScheduledTime:    st.ScheduledTime.ptr(),
			ActualTime:       st.ActualTime.ptr(),
			DurationMinutes:  st.DurationMinutes,
			Temperature:      st.Temperature,
			Status:           st.Status,
			NotificationSent: st.NotificationSent,
			Note:             st.Note,
		})
	}
	return s
}

// Request bodies.

type targetBakeTimeRequest struct {
	TargetBakeTime Timestamp `json:"targetBakeTime"`
}

type rescheduleRequest struct {
	NewTargetBakeTime Timestamp `json:"newTargetBakeTime"`
}

type completeStepRequest struct {
	Status string `json:"status,omitempty"`
}

type enableNotificationsRequest struct {
	PhoneNumber           string `json:"phoneNumber"`
	ReminderMinutesBefore int    `json:"reminderMinutesBefore,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// jwtResponse is returned by login and refresh.
type jwtResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
	} `json:"user"`
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
