package cli_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/cli"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	kv, err := adapter.NewSQLiteKV(context.Background(), path)
	gt.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return store.New(adapter.NewMemoryKV(), kv)
}

func TestProfileSet(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "garden.db")

	err := cli.Run(ctx, []string{"sproutsage", "profile", "--db-path", dbPath, "set", "--name", "Rosa"})
	gt.V(t, err).Nil()

	profile := repository.NewProfile(openStore(t, dbPath)).Load(ctx)
	gt.Equal(t, profile.Name, "Rosa")
}

func TestHistoryClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "garden.db")

	s := openStore(t, dbPath)
	h := repository.NewHistory(s)
	_, err := h.Add(ctx, careInfo(), "data:image/jpeg;base64,AAAA")
	gt.NoError(t, err)

	cliErr := cli.Run(ctx, []string{"sproutsage", "history", "--db-path", dbPath, "clear"})
	gt.V(t, cliErr).NotNil()
	gt.Equal(t, cliErr.Code, 1)
	gt.A(t, h.LoadAll(ctx)).Length(1)

	cliErr = cli.Run(ctx, []string{"sproutsage", "history", "--db-path", dbPath, "clear", "--yes"})
	gt.V(t, cliErr).Nil()
	gt.A(t, h.LoadAll(ctx)).Length(0)
}

func TestHistoryListWithCorruptedEntry(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "garden.db")

	s := openStore(t, dbPath)
	gt.NoError(t, s.Set(ctx, store.ScopeDurable, repository.KeyScanHistory, `[null]`))

	cliErr := cli.Run(ctx, []string{"sproutsage", "history", "--db-path", dbPath, "list"})
	gt.V(t, cliErr).Nil()

	cliErr = cli.Run(ctx, []string{"sproutsage", "history", "--db-path", dbPath, "show", "missing"})
	gt.V(t, cliErr).NotNil()
	gt.Equal(t, cliErr.Code, 1)
}

func TestReminderAddRejectsZeroFrequency(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "garden.db")

	s := openStore(t, dbPath)
	plants := repository.NewPlants(s)
	info := careInfo()
	p, err := plants.ToggleSave(ctx, &info)
	gt.NoError(t, err)

	cliErr := cli.Run(ctx, []string{"sproutsage", "reminder", "--db-path", dbPath, "add", "--every", "0", string(p.ID)})
	gt.V(t, cliErr).NotNil()

	cliErr = cli.Run(ctx, []string{"sproutsage", "reminder", "--db-path", dbPath, "add", "--every", "100000000000", string(p.ID)})
	gt.V(t, cliErr).NotNil()

	cliErr = cli.Run(ctx, []string{"sproutsage", "reminder", "--db-path", dbPath, "add", "--type", "pruning", "--every", "30", string(p.ID)})
	gt.V(t, cliErr).Nil()

	stored, err := plants.Get(ctx, p.ID)
	gt.NoError(t, err)
	gt.A(t, stored.Reminders).Length(1)
	gt.Equal(t, stored.Reminders[0].FrequencyDays, 30)
}

func careInfo() model.CareInfo {
	return model.CareInfo{
		CommonName:        "Peace Lily",
		ScientificName:    "Spathiphyllum wallisii",
		Description:       "Glossy leaves and white spathes.",
		Watering:          "Keep soil lightly moist",
		Light:             "Medium indirect",
		Soil:              "Peat-based mix",
		Temperature:       "18-27°C",
		Humidity:          "High",
		PotentialProblems: []string{"Brown tips"},
	}
}
