package sources

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
)

// SystemSource probes local machine signals: battery charge from sysfs
// and failed background services from systemd over the system bus. Every
// probe is best-effort.
type SystemSource struct {
	powerSupplyDir string
	checkUnits     bool
	conn           *dbus.Conn
}

func NewSystemSource(cfg models.SystemConfig) *SystemSource {
	s := &SystemSource{
		powerSupplyDir: cfg.PowerSupplyDir,
		checkUnits:     cfg.CheckUnits,
	}
	if cfg.CheckUnits {
		conn, err := dbus.SystemBus()
		if err != nil {
			log.WithError(err).Debug("system bus unavailable, unit checks disabled")
		} else {
			s.conn = conn
		}
	}
	return s
}

// Fetch gathers the current system status.
func (s *SystemSource) Fetch(ctx context.Context) models.SystemStatus {
	status := models.SystemStatus{BatteryPercent: -1}
	s.readBattery(&status)
	if s.conn != nil {
		status.FailedUnits = s.failedUnits(ctx)
	}
	return status
}

// readBattery scans the power-supply directory for the first battery
// device and reads capacity and charging state. Desktops without a
// battery simply report -1.
func (s *SystemSource) readBattery(status *models.SystemStatus) {
	entries, err := os.ReadDir(s.powerSupplyDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		base := filepath.Join(s.powerSupplyDir, entry.Name())

		kind, err := os.ReadFile(filepath.Join(base, "type"))
		if err != nil || strings.TrimSpace(string(kind)) != "Battery" {
			continue
		}

		capData, err := os.ReadFile(filepath.Join(base, "capacity"))
		if err != nil {
			continue
		}
		percent, err := strconv.Atoi(strings.TrimSpace(string(capData)))
		if err != nil {
			continue
		}
		status.BatteryPercent = percent

		if stateData, err := os.ReadFile(filepath.Join(base, "status")); err == nil {
			status.OnBattery = strings.TrimSpace(string(stateData)) == "Discharging"
		}
		return
	}
}

// failedUnits asks systemd for units in the failed state.
func (s *SystemSource) failedUnits(ctx context.Context) []string {
	type unit struct {
		Name        string
		Description string
		LoadState   string
		ActiveState string
		SubState    string
		Followed    string
		Path        dbus.ObjectPath
		JobID       uint32
		JobType     string
		JobPath     dbus.ObjectPath
	}

	obj := s.conn.Object("org.freedesktop.systemd1", "/org/freedesktop/systemd1")
	var units []unit
	err := obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.ListUnitsFiltered", 0,
		[]string{"failed"}).Store(&units)
	if err != nil {
		log.WithError(err).Debug("listing failed units")
		return nil
	}

	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.Name)
	}
	return names
}
