package envres

import "fmt"

// MissingKeyError is returned when a value references a variable that the
// named service has not deployed. It is terminal: retrying cannot fix a
// dependency that has not been deployed.
type MissingKeyError struct {
	Service string
	Key     string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("service %q has no deployed value for %q", e.Service, e.Key)
}

// MissingURLError is returned when a value references the base URL of a
// service that has no deployed gateway.
type MissingURLError struct {
	Service string
}

func (e *MissingURLError) Error() string {
	return fmt.Sprintf("service %q has no deployed gateway URL", e.Service)
}
