// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

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

	if err := validateLinkerSettings(&settings.Linker); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validatePoolSettings(&settings.Pool); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateKinematicsSettings(&settings.Kinematics); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateLinkerSettings validates the external linker invocation settings
func validateLinkerSettings(settings *LinkerSettings) error {
	var errs []string

	if settings.JavaPath == "" {
		errs = append(errs, "linker java path must not be empty")
	}

	if settings.JarPath == "" {
		errs = append(errs, "linker jar path must not be empty")
	}

	if settings.LinkRange < 1 {
		errs = append(errs, "linker link range must be at least 1")
	}

	if settings.Displacement <= 0 {
		errs = append(errs, "linker displacement must be greater than 0")
	}

	if settings.Timeout <= 0 {
		errs = append(errs, "linker timeout must be greater than 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validatePoolSettings validates worker pool memory and core constraints.
// Invalid memory/core combinations are rejected here, before any work starts.
func validatePoolSettings(settings *PoolSettings) error {
	var errs []string

	if settings.WorkerMemoryMB <= 0 {
		errs = append(errs, "pool worker memory must be greater than 0 MB")
	}

	if settings.MemoryMB < 0 {
		errs = append(errs, "pool memory budget must not be negative")
	}

	if settings.MemoryMB > 0 && settings.WorkerMemoryMB > settings.MemoryMB {
		errs = append(errs, fmt.Sprintf("pool worker memory (%d MB) exceeds total memory budget (%d MB)",
			settings.WorkerMemoryMB, settings.MemoryMB))
	}

	if settings.MaxWorkers < 1 {
		errs = append(errs, "pool max workers must be at least 1")
	}

	if settings.Cores < 0 {
		errs = append(errs, "pool cores must not be negative")
	}

	if settings.MinVideosPerWorker < 1 {
		errs = append(errs, "pool minimum videos per worker must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateKinematicsSettings validates derived metric settings
func validateKinematicsSettings(settings *KinematicsSettings) error {
	if settings.FrameRate <= 0 {
		return fmt.Errorf("kinematics frame rate must be greater than 0")
	}
	return nil
}
