package ble

import (
	"context"
	"fmt"
	"sync"

	"github.com/fako1024/gatt"

	"github.com/opentrickler/trickle2go/internal/configuration"
	"github.com/opentrickler/trickle2go/internal/state"
	"github.com/opentrickler/trickle2go/internal/ui"
	"github.com/opentrickler/trickle2go/internal/units"
)

// GATT layout of the trickler peripheral. The UUIDs are fixed, companion
// apps discover the service by the service UUID and address characteristics
// directly.
var (
	serviceUUID      = gatt.MustParseUUID("10000000-be5f-4b43-a49f-76f2d65c6e28")
	scaleWeightUUID  = gatt.MustParseUUID("10000001-be5f-4b43-a49f-76f2d65c6e28")
	scaleStatusUUID  = gatt.MustParseUUID("10000002-be5f-4b43-a49f-76f2d65c6e28")
	scaleUnitUUID    = gatt.MustParseUUID("10000003-be5f-4b43-a49f-76f2d65c6e28")
	targetWeightUUID = gatt.MustParseUUID("10000004-be5f-4b43-a49f-76f2d65c6e28")
	autoModeUUID     = gatt.MustParseUUID("10000005-be5f-4b43-a49f-76f2d65c6e28")
)

var defaultBTServerOptions = []gatt.Option{
	gatt.LnxMaxConnections(1),
	gatt.LnxDeviceID(-1, true),
}

// Peripheral exposes the trickler over Bluetooth LE as a GATT peripheral.
// Writes land in the state store settings, reads and notifications come from
// published snapshots.
type Peripheral struct {
	name  string
	store *state.Store

	device gatt.Device

	mu            sync.Mutex
	requestedUnit *units.Unit
	confirmedUnit units.Unit
}

func NewPeripheral(config configuration.BluetoothConfig, store *state.Store) *Peripheral {
	return &Peripheral{
		name:  config.Name,
		store: store,
	}
}

// Run advertises the peripheral until the context is cancelled.
func (p *Peripheral) Run(ctx context.Context) error {
	device, err := gatt.NewDevice(defaultBTServerOptions...)
	if err != nil {
		return fmt.Errorf("cannot open bluetooth device: %w", err)
	}
	p.device = device

	device.Handle(
		gatt.CentralConnected(func(central gatt.Central) {
			ui.Info("BLE central connected: %s", central.ID())
		}),
		gatt.CentralDisconnected(func(central gatt.Central) {
			ui.Info("BLE central disconnected: %s", central.ID())
		}),
	)

	if err := device.Init(p.onStateChanged); err != nil {
		return fmt.Errorf("cannot initialize bluetooth device: %w", err)
	}

	<-ctx.Done()
	return device.Close()
}

func (p *Peripheral) onStateChanged(device gatt.Device, s gatt.State) {
	switch s {
	case gatt.StatePoweredOn:
		service := p.buildService()
		if err := device.AddService(service); err != nil {
			ui.Error("Cannot register BLE service: %v", err)
			return
		}
		if err := device.AdvertiseNameAndServices(p.name, []gatt.UUID{service.UUID()}); err != nil {
			ui.Error("Cannot advertise BLE service: %v", err)
			return
		}
		ui.Info("Advertising as %q", p.name)
	default:
		ui.Debug("BLE device state: %s", s)
	}
}

func (p *Peripheral) buildService() *gatt.Service {
	service := gatt.NewService(serviceUUID)

	p.addScaleWeight(service)
	p.addScaleStatus(service)
	p.addScaleUnit(service)
	p.addTargetWeight(service)
	p.addAutoMode(service)

	return service
}

func (p *Peripheral) addScaleWeight(service *gatt.Service) {
	c := service.AddCharacteristic(scaleWeightUUID)
	c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		_, _ = rsp.Write(encodeDecimal(p.store.Snapshot().Weight))
	})
	c.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		p.notify(n, func(snapshot state.Snapshot) []byte {
			return encodeDecimal(snapshot.Weight)
		})
	})
}

func (p *Peripheral) addScaleStatus(service *gatt.Service) {
	c := service.AddCharacteristic(scaleStatusUUID)
	c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		_, _ = rsp.Write(encodeStatus(p.store.Snapshot().Status))
	})
	c.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		p.notify(n, func(snapshot state.Snapshot) []byte {
			return encodeStatus(snapshot.Status)
		})
	})
}

// addScaleUnit registers the unit characteristic. A write requests a unit
// switch on the physical scale; the new unit is only notified once a
// subsequent reading confirms the scale actually switched.
func (p *Peripheral) addScaleUnit(service *gatt.Service) {
	c := service.AddCharacteristic(scaleUnitUUID)
	c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		_, _ = rsp.Write(encodeUnit(p.store.Snapshot().Unit))
	})
	c.HandleWriteFunc(func(r gatt.Request, data []byte) byte {
		unit, err := decodeUnit(data)
		if err != nil {
			ui.Warning("Rejecting BLE unit write: %v", err)
			return gatt.StatusUnexpectedError
		}
		p.mu.Lock()
		p.requestedUnit = &unit
		p.mu.Unlock()
		p.store.UpdateSettings(func(settings *state.Settings) {
			settings.TargetWeight = units.Convert(settings.TargetWeight, settings.TargetUnit, unit)
			settings.TargetUnit = unit
		})
		return gatt.StatusSuccess
	})
	c.HandleNotifyFunc(func(r gatt.Request, n gatt.Notifier) {
		ch := p.store.Subscribe()
		defer p.store.Unsubscribe(ch)
		for {
			if n.Done() {
				return
			}
			snapshot, ok := <-ch
			if !ok {
				return
			}
			if !p.unitConfirmed(snapshot) {
				continue
			}
			if _, err := n.Write(encodeUnit(snapshot.Unit)); err != nil {
				return
			}
		}
	})
}

// unitConfirmed reports whether the snapshot carries a unit worth notifying:
// either a change with no pending request, or the arrival of a requested one.
func (p *Peripheral) unitConfirmed(snapshot state.Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.requestedUnit != nil {
		if snapshot.Unit != *p.requestedUnit {
			// scale has not acknowledged the switch yet
			return false
		}
		p.requestedUnit = nil
		p.confirmedUnit = snapshot.Unit
		return true
	}

	if snapshot.Unit != p.confirmedUnit {
		p.confirmedUnit = snapshot.Unit
		return true
	}
	return false
}

func (p *Peripheral) addTargetWeight(service *gatt.Service) {
	c := service.AddCharacteristic(targetWeightUUID)
	c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		_, _ = rsp.Write(encodeDecimal(p.store.Settings().TargetWeight))
	})
	c.HandleWriteFunc(func(r gatt.Request, data []byte) byte {
		value, err := decodeDecimal(data)
		if err != nil {
			ui.Warning("Rejecting BLE target weight write: %v", err)
			return gatt.StatusUnexpectedError
		}
		if value.IsNegative() {
			ui.Warning("Rejecting negative BLE target weight: %s", value)
			return gatt.StatusUnexpectedError
		}
		p.store.UpdateSettings(func(settings *state.Settings) {
			settings.TargetWeight = value
		})
		return gatt.StatusSuccess
	})
}

func (p *Peripheral) addAutoMode(service *gatt.Service) {
	c := service.AddCharacteristic(autoModeUUID)
	c.HandleReadFunc(func(rsp gatt.ResponseWriter, req *gatt.ReadRequest) {
		_, _ = rsp.Write(encodeBool(p.store.Settings().AutoMode))
	})
	c.HandleWriteFunc(func(r gatt.Request, data []byte) byte {
		value, err := decodeBool(data)
		if err != nil {
			ui.Warning("Rejecting BLE auto mode write: %v", err)
			return gatt.StatusUnexpectedError
		}
		p.store.UpdateSettings(func(settings *state.Settings) {
			settings.AutoMode = value
		})
		return gatt.StatusSuccess
	})
}

// notify streams encoded snapshot fields to a subscribed central until it
// unsubscribes. Identical consecutive payloads are suppressed.
func (p *Peripheral) notify(n gatt.Notifier, encode func(snapshot state.Snapshot) []byte) {
	ch := p.store.Subscribe()
	defer p.store.Unsubscribe(ch)

	var last []byte
	for {
		if n.Done() {
			return
		}
		snapshot, ok := <-ch
		if !ok {
			return
		}
		payload := encode(snapshot)
		if string(payload) == string(last) {
			continue
		}
		if _, err := n.Write(payload); err != nil {
			return
		}
		last = payload
	}
}
