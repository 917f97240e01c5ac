package function

// Spec is everything the platform needs to create or reconfigure one
// remote function. It is fully derived from a Desired function, the
// resolved environment and the execution role.
type Spec struct {
	RemoteName   string
	Runtime      string
	Architecture string
	RoleARN      string
	MemorySize   int32
	Timeout      int32
	Environment  map[string]string
	Archive      []byte
}
