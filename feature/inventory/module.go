package inventory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// ModuleStateEvent is the event type emitted when a module disappears or
// reappears on its chassis.
const ModuleStateEvent = "moduleState"

type moduleHooks struct {
	reconcile.NopHooks
	cfg Config
}

func (h moduleHooks) Prepare(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) error {
	serial, err := deviceSerial(ctx, s, rec)
	if err != nil {
		return err
	}

	if rec.Str("name") == "" && serial != "" {
		rec.Set("name", "S/N "+serial)
	}
	if err := h.resolveDuplicateSerial(ctx, s, rec, serial); err != nil {
		return err
	}
	return h.resolveDuplicateName(ctx, s, rec, serial)
}

// resolveDuplicateSerial detaches the device from any other module holding
// it, so rec can claim it on persist.
func (h moduleHooks) resolveDuplicateSerial(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record, serial string) error {
	deviceID, ok := rec.RefID("device")
	if !ok || serial == "" {
		return nil
	}

	holders, err := s.Find(ctx, TypeModule, map[string]any{"device_id": deviceID})
	if err != nil {
		return err
	}
	for _, other := range holders {
		if other.ID() == rec.ID() {
			continue
		}
		otherNetbox, _ := other.Int64("netbox_id")
		s.Log.Warn("serial number conflict, detaching device from other module",
			zap.String("serial", serial),
			zap.Stringer("module", rec),
			zap.Int64("other_id", other.ID()),
			zap.String("other_name", other.String("name")),
			zap.Int64("other_netbox_id", otherNetbox),
		)
		device, err := s.Insert(ctx, TypeDevice, map[string]any{"serial": nil})
		if err != nil {
			return err
		}
		if err := s.Update(ctx, TypeModule, other.ID(), map[string]any{"device_id": device.ID()}); err != nil {
			return err
		}
	}
	return nil
}

// resolveDuplicateName renames another module on the same netbox that
// already carries rec's name, which happens when two modules swap slots.
func (h moduleHooks) resolveDuplicateName(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record, serial string) error {
	name := rec.Str("name")
	netboxID, ok := rec.RefID("netbox")
	if !ok || name == "" {
		return nil
	}

	same, err := s.Find(ctx, TypeModule, map[string]any{"netbox_id": netboxID, "name": name})
	if err != nil {
		return err
	}
	for _, other := range same {
		if other.ID() == rec.ID() {
			continue
		}
		otherSerial, err := storedSerial(ctx, s, other)
		if err != nil {
			return err
		}
		renamed := fmt.Sprintf("%s (#%d)", name, other.ID())
		if otherSerial != "" {
			renamed = fmt.Sprintf("%s (%s)", name, otherSerial)
		}
		s.Log.Warn("modules appear to have been swapped inside the same chassis",
			zap.String("name", name),
			zap.String("serial", serial),
			zap.Int64("other_id", other.ID()),
			zap.String("other_serial", otherSerial),
			zap.String("renamed_to", renamed),
		)
		if err := s.Update(ctx, TypeModule, other.ID(), map[string]any{"name": renamed}); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// Cleanup emits a down event for every previously up module of the netbox
// that was not observed, and an up event for every previously down module
// that reappeared.
func (h moduleHooks) Cleanup(ctx context.Context, s *reconcile.Scope, observed []*reconcile.Record) error {
	subject := s.Subject()
	seen := observedIDs(observed)

	rows, err := s.Find(ctx, TypeModule, map[string]any{"netbox_id": subject.ID()})
	if err != nil {
		return err
	}

	var missing, reappeared []string
	for _, row := range rows {
		var state reconcile.EventState
		switch up := row.String("up"); {
		case up == "y" && !seen[row.ID()]:
			state = reconcile.StateStart
			missing = append(missing, row.String("name"))
		case up == "n" && seen[row.ID()]:
			state = reconcile.StateEnd
			reappeared = append(reappeared, row.String("name"))
		default:
			continue
		}
		if err := s.Emit(ctx, h.moduleEvent(subject.ID(), row, state)); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		s.Log.Info("modules went missing", zap.Int("count", len(missing)), zap.String("modules", strings.Join(missing, ", ")))
	}
	if len(reappeared) > 0 {
		s.Log.Info("modules reappeared", zap.Int("count", len(reappeared)), zap.String("modules", strings.Join(reappeared, ", ")))
	}
	return nil
}

func (h moduleHooks) moduleEvent(netboxID int64, row database.Row, state reconcile.EventState) reconcile.Event {
	ev := reconcile.Event{
		Source:    h.cfg.EventSource,
		Target:    h.cfg.EventTarget,
		NetboxID:  netboxID,
		SubID:     strconv.FormatInt(row.ID(), 10),
		EventType: ModuleStateEvent,
		State:     state,
	}
	if id, ok := row.Int64("device_id"); ok {
		ev.DeviceID = &id
	}
	return ev
}

// deviceSerial returns the serial of the device rec refers to, whether the
// device is staged this run or referenced by canonical id.
func deviceSerial(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (string, error) {
	if dev := rec.Ref("device"); dev != nil {
		if serial := dev.Str("serial"); serial != "" {
			return serial, nil
		}
		if dev.Existing() != nil {
			return dev.Existing().String("serial"), nil
		}
		return "", nil
	}
	id, ok := rec.RefID("device")
	if !ok {
		return "", nil
	}
	row, _, err := s.Get(ctx, TypeDevice, id)
	return row.String("serial"), err
}

func storedSerial(ctx context.Context, s *reconcile.Scope, module database.Row) (string, error) {
	id, ok := module.Int64("device_id")
	if !ok {
		return "", nil
	}
	row, _, err := s.Get(ctx, TypeDevice, id)
	return row.String("serial"), err
}

func observedIDs(observed []*reconcile.Record) map[int64]bool {
	seen := make(map[int64]bool, len(observed))
	for _, rec := range observed {
		if rec.Resolved() {
			seen[rec.ID()] = true
		}
	}
	return seen
}
