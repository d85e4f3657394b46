package cloudinit

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMetadataMarshal(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		out, err := NewMetadata("test123").Marshal()
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := "instance-id: test123\nlocal-hostname: test123\n"
		if string(out) != want {
			t.Errorf("Marshal() = %q, want %q", out, want)
		}
	})

	t.Run("all fields", func(t *testing.T) {
		md := NewMetadata("web01")
		md.NetworkInterfaces = "auto eth0\niface eth0 inet dhcp\n"
		md.PublicKeys = []string{"ssh-ed25519 AAAA one", "ssh-rsa BBBB two"}

		out, err := md.Marshal()
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if !strings.Contains(string(out), "public-keys:") {
			t.Errorf("missing public-keys:\n%s", out)
		}

		var back Metadata
		if err := yaml.Unmarshal(out, &back); err != nil {
			t.Fatal(err)
		}
		if back.NetworkInterfaces != md.NetworkInterfaces {
			t.Errorf("network-interfaces = %q", back.NetworkInterfaces)
		}
		if len(back.PublicKeys) != 2 {
			t.Errorf("public-keys = %v", back.PublicKeys)
		}
	})
}
