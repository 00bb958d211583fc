package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDesktopEntryQuotesExec(t *testing.T) {
	entry := AutostartEntry{
		ID:   "autologout",
		Name: "Auto Logout",
		Exec: "/opt/auto logout/autologout",
		Args: []string{"--timeout=15m0s", `--config=/home/me/"odd" $dir/a.yaml`, "--log-level=100%"},
	}
	rendered := renderDesktopEntry(entry)
	assert.Contains(t, rendered, "Name=Auto Logout\n")
	assert.Contains(t, rendered, "NoDisplay=true\n")
	assert.Contains(t, rendered,
		`Exec="/opt/auto logout/autologout" --timeout=15m0s "--config=/home/me/\"odd\" \$dir/a.yaml" --log-level=100%%`+"\n")
	assert.NotContains(t, rendered, "Comment=")
}

func TestDesktopEntryRoundTrip(t *testing.T) {
	entry := AutostartEntry{
		ID:      "autologout",
		Name:    "Auto Logout",
		Comment: "Log out idle sessions",
		Exec:    "/usr/bin/autologout",
		Args:    []string{"--immune-group=wheel", `--config=C:\odd path`, "", "50%"},
	}
	parsed, err := parseDesktopEntry("autologout", renderDesktopEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry, parsed)
}

func TestParseDesktopEntryIgnoresOtherSections(t *testing.T) {
	content := "# generated\n[Desktop Action Quit]\nExec=/bin/false\n\n[Desktop Entry]\nName=x\nExec=/usr/bin/autologout -t 5m\n"
	parsed, err := parseDesktopEntry("x", content)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/autologout", parsed.Exec)
	assert.Equal(t, []string{"-t", "5m"}, parsed.Args)
}

func TestParseDesktopEntryErrors(t *testing.T) {
	_, err := parseDesktopEntry("x", "[Desktop Entry]\nName=x\n")
	require.ErrorContains(t, err, "no Exec key")

	_, err = parseDesktopEntry("x", "[Desktop Entry]\nExec=\"/usr/bin/autologout\n")
	require.ErrorContains(t, err, "unterminated quote")
}

func TestAutostartEntryValidate(t *testing.T) {
	require.Error(t, AutostartEntry{Exec: "/usr/bin/autologout"}.validate())
	require.Error(t, AutostartEntry{ID: "autologout"}.validate())
	require.NoError(t, AutostartEntry{ID: "autologout", Exec: "/usr/bin/autologout"}.validate())
	assert.Equal(t, "auto-logout.desktop", desktopFileName(" Auto Logout "))
}
