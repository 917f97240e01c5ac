package function

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		desired Desired
		wantErr error
	}{
		{"valid", Desired{Name: "get-user", Method: "GET", Path: "/users"}, nil},
		{"missing name", Desired{Method: "GET", Path: "/users"}, ErrInvalidName},
		{"missing method", Desired{Name: "get-user", Path: "/users"}, ErrInvalidMethod},
		{"relative path", Desired{Name: "get-user", Method: "GET", Path: "users"}, ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.desired.Validate(), tt.wantErr)
		})
	}
}

func TestTimeoutAndMemory(t *testing.T) {
	d := Desired{Name: "f", Method: "GET", Path: "/"}
	assert.Equal(t, DefaultTimeout, d.Timeout())
	assert.Equal(t, int32(1024), d.MemorySize())

	d.Config.TimeoutSeconds = 120
	d.Config.Compute = ComputeHigh
	assert.Equal(t, int32(120), d.Timeout())
	assert.Equal(t, int32(3008), d.MemorySize())
}

func TestNamespacing(t *testing.T) {
	remote := RemoteName("prod", "shop", "get-user")
	assert.Equal(t, "prod-shop-get-user", remote)

	local, ok := LocalName("prod", "shop", remote)
	require.True(t, ok)
	assert.Equal(t, "get-user", local)

	_, ok = LocalName("prod", "shop", "prod-other-get-user")
	assert.False(t, ok)
}

func TestResolveArchitecture(t *testing.T) {
	tests := []struct {
		name      string
		preferred []string
		compute   string
		want      string
		wantErr   bool
	}{
		{"default tier prefers arm64", nil, ComputeDefault, ArchARM64, false},
		{"high tier prefers x86_64", nil, ComputeHigh, ArchX64, false},
		{"preference filters default order", []string{ArchX64}, ComputeDefault, ArchX64, false},
		{"preference filters high order", []string{ArchARM64}, ComputeHigh, ArchARM64, false},
		{"both allowed keeps tier order", []string{ArchX64, ArchARM64}, ComputeDefault, ArchARM64, false},
		{"no supported architecture", []string{"riscv"}, ComputeDefault, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveArchitecture(tt.preferred, tt.compute)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRuntime(t *testing.T) {
	tests := []struct {
		engine  string
		want    string
		wantErr bool
	}{
		{">=20", "nodejs20.x", false},
		{"", "nodejs20.x", false},
		{">=18", "nodejs18.x", false},
		{">=16", "", true},
		{"20", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			got, err := ResolveRuntime(tt.engine)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
