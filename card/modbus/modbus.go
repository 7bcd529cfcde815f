// Package modbus implements the one reference Card driver this repository
// carries: a Modbus RTU IO module. It is grounded directly on the teacher's
// src/server/localio/port.go scan/write/reconnect logic, generalized from
// that file's fixed DI/DO/AI/AO layout to the Card contract's generic
// register-Bank copy — the register-to-Point mapping is driven by the
// registerInputs/registerOutputs Banks' own Point layout rather than a
// hardcoded model table.
package modbus

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	goburrow "github.com/goburrow/modbus"

	"github.com/foxtail-io/fxtnode/bank"
	"github.com/foxtail-io/fxtnode/card"
	"github.com/foxtail-io/fxtnode/fxterr"
	"github.com/foxtail-io/fxtnode/point"
)

const TypeGUID = "9a1e2b3c-4d5f-4071-8a9b-0c1d2e3f4a5b"
const TypeName = "modbus_rtu"

// Config is the JSON shape of a modbus Card descriptor's "config" block: the serial transport parameters and slave address, mirroring
// the teacher's serialCfg.
type Config struct {
	Path    string `json:"path"`
	Slave   byte   `json:"slave"`
	Baud    int    `json:"baud"`
	Parity  string `json:"parity"`
	DataBit int    `json:"data_bits"`
	StopBit int    `json:"stop_bits"`
	Timeout int    `json:"timeout_ms"`
}

// Card owns a Modbus RTU serial connection and scans/flushes its
// IO-register Banks across it, guarded by mu exactly as the teacher's
// portClient.mu guards register access around each transaction.
type Card struct {
	*card.Base

	cfg     Config
	mu      sync.Mutex
	handler *goburrow.RTUClientHandler
	client  goburrow.Client
	connErr error
}

// New constructs a modbus Card. New does not open the serial port: Start
// opens it, and ScanInputs reopens it after a transport error, matching the
// teacher's connect-on-demand style.
func New(slot int, id string, cfg Config, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) *Card {
	return &Card{
		Base: card.NewBase(slot, id, TypeGUID, TypeName, registerInputs, virtualInputs, virtualOutputs, registerOutputs),
		cfg:  cfg,
	}
}

func (c *Card) ensureConn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	handler := goburrow.NewRTUClientHandler(c.cfg.Path)
	handler.BaudRate = c.cfg.Baud
	handler.DataBits = c.cfg.DataBit
	handler.Parity = parityCode(c.cfg.Parity)
	handler.StopBits = c.cfg.StopBit
	handler.SlaveId = c.cfg.Slave
	handler.Timeout = time.Duration(c.cfg.Timeout) * time.Millisecond

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Second
	err := backoff.Retry(func() error {
		return handler.Connect()
	}, b)
	if err != nil {
		c.connErr = err
		return err
	}

	c.handler = handler
	c.client = goburrow.NewClient(handler)
	c.connErr = nil
	return nil
}

func parityCode(p string) string {
	switch p {
	case "E", "e":
		return "E"
	case "O", "o":
		return "O"
	default:
		return "N"
	}
}

// Start opens the serial connection (latching a terminal error on
// failure), applies each IO-register Point's setter, then transitions to
// started iff no prior error, per the Card contract's Start behavior.
func (c *Card) Start(t0 int64) bool {
	if c.ErrorCode() != nil {
		return false
	}
	if err := c.ensureConn(); err != nil {
		c.Latch(card.ErrTransport.With(err))
		return false
	}
	for _, p := range c.RegisterInputs().Points() {
		if p.HasSetter() {
			p.UpdateFromSetter(0)
		}
	}
	for _, p := range c.RegisterOutputs().Points() {
		if p.HasSetter() {
			p.UpdateFromSetter(0)
		}
	}
	return c.MarkStarted()
}

func (c *Card) Stop() {
	c.MarkStopped()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		c.handler.Close()
		c.handler = nil
		c.client = nil
	}
}

// ScanInputs reopens the serial connection if an earlier transport error
// dropped it, reads the hardware's discrete/input registers into the
// IO-register-inputs Bank (pollInputs holds mu for the register
// transactions), then block-copies register-inputs into virtual-inputs
// under mu.
func (c *Card) ScanInputs(tNow int64) bool {
	if !c.Started() {
		return false
	}
	if err := c.ensureConn(); err != nil {
		c.Latch(card.ErrTransport.With(err))
		return false
	}
	if err := c.pollInputs(); err != nil {
		c.Latch(card.ErrTransport.With(err))
		c.client = nil // force reconnect on next scan, generalizing the teacher's ensurePort retry
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Base.ScanInputs()
}

// FlushOutputs block-copies virtual-outputs into register-outputs under mu,
// then writes the IO-register-outputs Bank to hardware under the same mu.
func (c *Card) FlushOutputs(tNow int64) bool {
	if !c.Started() {
		return false
	}
	c.mu.Lock()
	flushed := c.Base.FlushOutputs()
	c.mu.Unlock()
	if !flushed {
		return false
	}
	if err := c.pushOutputs(); err != nil {
		c.Latch(card.ErrTransport.With(err))
		c.client = nil
		return false
	}
	return true
}

// pollInputs reads every Point in registerInputs from its Modbus address
// (the Point's index within the Bank; a float32 Point at index i reads the
// two registers starting at i*2) and writes the result into the Point with
// NoRequest, so a locked Point keeps its value, the same way the teacher's
// readCard populates CardState fields.
func (c *Card) pollInputs() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return card.ErrTransport.Withf("not connected")
	}

	for i, p := range c.RegisterInputs().Points() {
		switch tp := p.(type) {
		case *point.ScalarPoint[bool]:
			raw, err := c.client.ReadDiscreteInputs(uint16(i), 1)
			if err != nil {
				return err
			}
			tp.Write(raw[0]&0x01 != 0, point.NoRequest)
		case *point.ScalarPoint[float32]:
			raw, err := c.client.ReadInputRegisters(uint16(i*2), 2)
			if err != nil {
				return err
			}
			tp.Write(math.Float32frombits(binary.BigEndian.Uint32(raw)), point.NoRequest)
		case *point.ScalarPoint[uint16]:
			raw, err := c.client.ReadInputRegisters(uint16(i), 1)
			if err != nil {
				return err
			}
			tp.Write(binary.BigEndian.Uint16(raw), point.NoRequest)
		}
		time.Sleep(2 * time.Millisecond) // RS485 inter-frame delay, per the teacher's operationDelay
	}
	return nil
}

// pushOutputs writes every Point in registerOutputs to its Modbus address,
// mirroring the teacher's writeDO/writeAO pair generalized over Bank order.
func (c *Card) pushOutputs() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return card.ErrTransport.Withf("not connected")
	}

	for i, p := range c.RegisterOutputs().Points() {
		switch tp := p.(type) {
		case *point.ScalarPoint[bool]:
			v, _ := tp.Read()
			coil := uint16(0x0000)
			if v {
				coil = 0xFF00
			}
			if _, err := c.client.WriteSingleCoil(uint16(i), coil); err != nil {
				return err
			}
		case *point.ScalarPoint[float32]:
			v, _ := tp.Read()
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := c.client.WriteMultipleRegisters(uint16(i*2), 2, buf); err != nil {
				return err
			}
		case *point.ScalarPoint[uint16]:
			v, _ := tp.Read()
			if _, err := c.client.WriteSingleRegister(uint16(i), v); err != nil {
				return err
			}
		}
		time.Sleep(2 * time.Millisecond)
	}
	return nil
}

// Register installs this driver's Constructor into fd. The descriptor's
// "config" block (if present) supplies the serial Config; absent it, New
// is built with the zero Config and Start will fail to connect, latching a
// transport error, matching Failure semantics.
func Register(fd *card.FactoryDatabase) {
	fd.Register(TypeGUID, func(slot int, id string, raw []byte, registerInputs, virtualInputs, virtualOutputs, registerOutputs *bank.Bank) (card.Card, *fxterr.Error) {
		cfg, ferr := parseConfig(raw)
		if ferr != nil {
			return nil, ferr
		}
		return New(slot, id, cfg, registerInputs, virtualInputs, virtualOutputs, registerOutputs), nil
	})
}

func parseConfig(raw []byte) (Config, *fxterr.Error) {
	var d struct {
		Config Config `json:"config"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return Config{}, card.ErrMalformedInitial.With(err)
	}
	return d.Config, nil
}
