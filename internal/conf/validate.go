// conf/validate.go

package conf

import (
	"fmt"
	"regexp"
	"strconv"
)

// locationCodeRegexp matches a 6-digit location code.
var locationCodeRegexp = regexp.MustCompile(`^\d{6}$`)

// ValidLocationCode reports whether code is a valid 6-digit location code.
func ValidLocationCode(code string) bool {
	return locationCodeRegexp.MatchString(code)
}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateCameraSettings(&settings.Camera); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDetectionSettings(&settings.Detection); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCameraSettings(settings *CameraSettings) error {
	if !ValidLocationCode(settings.Location) {
		return fmt.Errorf("camera location must be a 6-digit code, got %q", settings.Location)
	}
	return nil
}

func validateDetectionSettings(settings *DetectionSettings) error {
	if settings.Endpoint == "" {
		return fmt.Errorf("detection endpoint must not be empty")
	}
	if settings.Threshold < 0 || settings.Threshold > 1 {
		return fmt.Errorf("detection threshold must be between 0 and 1, got %f", settings.Threshold)
	}
	if settings.Timeout <= 0 {
		return fmt.Errorf("detection timeout must be positive, got %v", settings.Timeout)
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver port must be a number between 1 and 65535, got %q", settings.Port)
	}
	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	if !settings.SQLite.Enabled && !settings.MySQL.Enabled {
		return fmt.Errorf("either SQLite or MySQL output must be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return fmt.Errorf("SQLite path must not be empty when SQLite is enabled")
	}
	return nil
}
