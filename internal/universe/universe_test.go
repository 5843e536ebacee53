package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNormalizesAndOrders(t *testing.T) {
	path := writeUniverse(t, `ticker,company_name,market_cap
AAPL,Apple Inc.,2900000000000
brk.b,Berkshire Hathaway,780000000000
MSFT,Microsoft,2800000000000
`)

	companies, err := Load(path)
	require.NoError(t, err)
	require.Len(t, companies, 3)

	assert.Equal(t, []string{"AAPL", "BRK-B", "MSFT"}, Tickers(companies))
	assert.Equal(t, "Berkshire Hathaway", companies[1].Name)
	assert.Equal(t, 780000000000.0, companies[1].MarketCap)
}

func TestLoadDropsBlankAndDuplicateTickers(t *testing.T) {
	path := writeUniverse(t, `ticker,company_name,market_cap
AAPL,Apple Inc.,2900000000000
,Ghost Corp,0
aapl,Apple duplicate,1
MSFT,Microsoft,2800000000000
`)

	companies, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, Tickers(companies))
	assert.Equal(t, "Apple Inc.", companies[0].Name)
}

func TestLoadEmptyUniverseIsAnError(t *testing.T) {
	path := writeUniverse(t, "ticker,company_name,market_cap\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
