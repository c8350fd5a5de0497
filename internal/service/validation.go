package service

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// accepted date layouts, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError turns validator output into the API's field map
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return &errors.ErrValidation{Message: err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return &errors.ErrValidation{Message: "invalid order", Fields: fields}
}

// fieldPath drops the root struct name: "PlaceOrderRequest.items[0].quantity" -> "items[0].quantity"
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone10":
		return "must be exactly 10 digits"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

// parseDate reads an optional date. Nil or blank means absent.
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// normalizePlaceOrder trims the request in place so validation sees what gets stored
func normalizePlaceOrder(req *PlaceOrderRequest) {
	req.CustomerEmail = domain.NormalizeEmail(req.CustomerEmail)
	req.PlacedBy = domain.NormalizeEmail(req.PlacedBy)
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.OrderPlacerName = strings.TrimSpace(req.OrderPlacerName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.ExpectedDeliveryDate = strings.TrimSpace(req.ExpectedDeliveryDate)
	for i := range req.Items {
		it := &req.Items[i]
		it.ItemCode = strings.TrimSpace(it.ItemCode)
		it.ProductName = strings.TrimSpace(it.ProductName)
		it.DrawingCode = strings.TrimSpace(it.DrawingCode)
		it.Revision = strings.TrimSpace(it.Revision)
	}
}

// validatePlaceOrder checks the request and returns the parsed delivery date
func (s *orderService) validatePlaceOrder(req *PlaceOrderRequest) (*time.Time, error) {
	normalizePlaceOrder(req)

	var vErr *errors.ErrValidation
	if err := s.validate.Struct(req); err != nil {
		e := validationError(err)
		if !stderrors.As(e, &vErr) {
			return nil, e
		}
	}

	var delivery *time.Time
	if req.ExpectedDeliveryDate != "" {
		d, err := parseDate(&req.ExpectedDeliveryDate)
		switch {
		case err != nil:
			vErr = withField(vErr, "expected_delivery_date", "must be a valid date")
		case truncateToDay(*d).Before(truncateToDay(s.clock.Now())):
			vErr = withField(vErr, "expected_delivery_date", "cannot be in the past")
		default:
			day := truncateToDay(*d)
			delivery = &day
		}
	}

	if vErr != nil {
		return nil, vErr
	}
	return delivery, nil
}

func withField(e *errors.ErrValidation, field, msg string) *errors.ErrValidation {
	if e == nil {
		e = &errors.ErrValidation{Message: "invalid order", Fields: map[string]string{}}
	}
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
	return e
}

// parseTracking validates every row before anything is applied
func parseTracking(inputs []TrackingStageInput) ([]domain.TrackingStage, error) {
	fields := map[string]string{}
	stages := make([]domain.TrackingStage, len(inputs))

	for i, in := range inputs {
		name := strings.TrimSpace(in.Stage)
		if name == "" {
			fields[fmt.Sprintf("tracking[%d].stage", i)] = "is required"
		}
		planned, err := parseDate(in.PlannedDate)
		if err != nil {
			fields[fmt.Sprintf("tracking[%d].planned_date", i)] = "must be a valid date"
		}
		actual, err := parseDate(in.ActualDate)
		if err != nil {
			fields[fmt.Sprintf("tracking[%d].actual_date", i)] = "must be a valid date"
		}
		stages[i] = domain.TrackingStage{Stage: name, PlannedDate: planned, ActualDate: actual}
	}

	if len(inputs) < 2 {
		fields["tracking"] = "must contain the Order Placed stage followed by at least one more stage"
	} else if strings.TrimSpace(inputs[0].Stage) != domain.StageOrderPlaced {
		fields["tracking[0].stage"] = fmt.Sprintf("must be %q", domain.StageOrderPlaced)
	}

	if len(fields) > 0 {
		return nil, &errors.ErrValidation{Message: "invalid tracking", Fields: fields}
	}
	return stages, nil
}
