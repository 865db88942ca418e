package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3fund/internal/config"
)

// Addresses printed by the local deploy script, in deployment order.
const (
	GameAddress    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	FactoryAddress = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
	StoreAddress   = "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// DeploymentPath returns the absolute path of a file under deploy/.
func DeploymentPath(filename string) string {
	return filepath.Join(fixturesDir(), "deploy", filename)
}

// ReadDeployment parses a deploy/ fixture the way `config import` does.
func ReadDeployment(t *testing.T, filename string) *config.Deployment {
	t.Helper()
	data, err := os.ReadFile(DeploymentPath(filename))
	require.NoError(t, err, "failed to load deployment fixture: %s", filename)
	d, err := config.ParseDeployment(data)
	require.NoError(t, err)
	return d
}
