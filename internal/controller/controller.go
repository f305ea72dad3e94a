package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
	"github.com/dduransseau/enocean2mqtt/internal/logging"
	"github.com/dduransseau/enocean2mqtt/internal/metrics"
)

// Direction reports whether a decoded radio packet originated at the
// attached adapter (TO) or at a field device (FROM), determined by
// comparing the sender against the controller's own/base address.
type Direction uint8

const (
	DirectionFromDevice Direction = iota
	DirectionToDevice
)

// Config controls a Controller's behaviour.
type Config struct {
	// TeachIn enables the UTE auto-response handshake. A controller with
	// TeachIn=false silently ignores teach-in requests.
	TeachIn bool
	// ReadTimeout bounds a single transport Read so the stop flag is
	// observed within roughly a second even on an idle link.
	ReadTimeout time.Duration
	// QueueSize bounds both the transmit and receive channels.
	QueueSize int
	// StartupTimeout bounds how long WaitReady waits for the adapter probe
	// to resolve the controller's own address before returning anyway.
	StartupTimeout time.Duration
}

// DefaultConfig returns reasonable adapter-probe and stop-flag timing.
func DefaultConfig() Config {
	return Config{
		TeachIn:        true,
		ReadTimeout:    time.Second,
		QueueSize:      256,
		StartupTimeout: 5 * time.Second,
	}
}

// timedReader is implemented by transports that support a read deadline
// (e.g. serial ports, net.Conn); the controller uses it to bound a single
// Read call so the stop flag is observed promptly even when idle.
type timedReader interface {
	SetReadDeadline(t time.Time) error
}

// Controller is the single worker that owns the byte buffer, the frame
// scanner, and the outstanding-command FIFO. It also owns the transmit
// queue's consumer end and the receive queue's producer end.
type Controller struct {
	cfg       Config
	transport Transport
	scanner   *esp3.Scanner
	metrics   *metrics.Metrics

	transmit *TransmitQueue
	receive  *ReceiveQueue

	ownAddress atomic.Value // [4]byte, zero until the startup probe resolves BaseID

	cmdMu      sync.Mutex
	cmdQueue   []esp3.CommandCode
	identityMu sync.RWMutex
	identity   AdapterIdentity

	crcErrors atomic.Uint64
	startedAt time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a Controller over transport. m may be nil (metrics disabled).
func New(transport Transport, cfg Config, m *metrics.Metrics) *Controller {
	c := &Controller{
		cfg:       cfg,
		transport: transport,
		scanner:   esp3.NewScanner(),
		metrics:   m,
		transmit:  NewTransmitQueue(cfg.QueueSize),
		receive:   NewReceiveQueue(cfg.QueueSize),
		stopCh:    make(chan struct{}),
	}
	c.ownAddress.Store([4]byte{})
	return c
}

// TransmitQueue exposes the producer side for the gateway.
func (c *Controller) TransmitQueue() *TransmitQueue { return c.transmit }

// ReceiveQueue exposes the consumer side for the gateway.
func (c *Controller) ReceiveQueue() *ReceiveQueue { return c.receive }

// OwnAddress returns the controller's base address, once the startup probe
// has resolved it (zero value beforehand).
func (c *Controller) OwnAddress() [4]byte { return c.ownAddress.Load().([4]byte) }

// Identity returns a snapshot of the adapter identity fields gathered by
// the startup probe.
func (c *Controller) Identity() AdapterIdentity {
	c.identityMu.RLock()
	defer c.identityMu.RUnlock()
	return c.identity
}

// CrcErrors reports the running count of header/body CRC-8 mismatches.
func (c *Controller) CrcErrors() uint64 { return c.crcErrors.Load() }

// Snapshot is the health/status struct published over the gateway's
// control surface.
type Snapshot struct {
	ChipID         uint32    `json:"chip_id"`
	BaseID         [4]byte   `json:"base_id"`
	AppVersion     [4]byte   `json:"app_version"`
	APIVersion     [4]byte   `json:"api_version"`
	AppDescription string    `json:"app_description"`
	Frequency      string    `json:"frequency"`
	Protocol       string    `json:"protocol"`
	RepeaterMode   string    `json:"repeater_mode"`
	RepeaterLevel  uint8     `json:"repeater_level"`
	CrcErrors      uint64    `json:"crc_errors"`
	Uptime         string    `json:"uptime"`
	StartedAt      time.Time `json:"started_at"`
}

// Snapshot returns the controller's current health/identity status.
func (c *Controller) Snapshot() Snapshot {
	id := c.Identity()
	return Snapshot{
		ChipID:         id.ChipID,
		BaseID:         id.BaseID,
		AppVersion:     id.AppVersion,
		APIVersion:     id.APIVersion,
		AppDescription: id.AppDescription,
		Frequency:      id.Frequency,
		Protocol:       id.Protocol,
		RepeaterMode:   id.RepeaterMode,
		RepeaterLevel:  id.RepeaterLevel,
		CrcErrors:      c.crcErrors.Load(),
		Uptime:         time.Since(c.startedAt).String(),
		StartedAt:      c.startedAt,
	}
}

// Start launches the receive and send loops and enqueues the adapter
// startup probe. It returns once both loops have been spawned; the probe
// itself completes asynchronously (see WaitReady).
func (c *Controller) Start(ctx context.Context) {
	c.startedAt = time.Now()

	c.wg.Add(2)
	go c.receiveLoop(ctx)
	go c.sendLoop(ctx)

	c.enqueueStartupProbe()
}

// WaitReady blocks until the startup probe's CO_RD_IDBASE response has
// resolved the controller's own address, ctx is done, or StartupTimeout
// elapses — whichever comes first. The gateway should call this before
// publishing adapter identity fields.
func (c *Controller) WaitReady(ctx context.Context) {
	deadline := time.Now().Add(c.cfg.StartupTimeout)
	if c.cfg.StartupTimeout <= 0 {
		deadline = time.Now().Add(5 * time.Second)
	}
	for time.Now().Before(deadline) {
		if c.OwnAddress() != ([4]byte{}) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// Stop interrupts both loops and closes the transport. Safe to call
// concurrently or more than once; only the first call does the work.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.transport.Close()
		c.transmit.Close()
		c.receive.Close()
	})
	c.wg.Wait()
}

func (c *Controller) enqueueStartupProbe() {
	for _, cmd := range startupProbe {
		c.cmdMu.Lock()
		c.cmdQueue = append(c.cmdQueue, cmd)
		c.cmdMu.Unlock()
		if c.metrics != nil {
			c.metrics.CommandQueueDepth.Set(float64(len(c.cmdQueue)))
		}
		if err := c.transmit.Add(commonCommandPacket(cmd)); err != nil {
			logging.Warn("controller: failed to enqueue startup probe command", "command", cmd, "err", err)
			continue
		}
		if c.metrics != nil {
			c.metrics.TransmitQueueDepth.Set(float64(c.transmit.Len()))
		}
	}
}

// popCommand pops the oldest outstanding command id, or false if none is
// pending (a Response arrived with nothing to correlate it to).
func (c *Controller) popCommand() (esp3.CommandCode, bool) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	if len(c.cmdQueue) == 0 {
		return 0, false
	}
	cmd := c.cmdQueue[0]
	c.cmdQueue = c.cmdQueue[1:]
	if c.metrics != nil {
		c.metrics.CommandQueueDepth.Set(float64(len(c.cmdQueue)))
	}
	return cmd, true
}

// sendLoop drains the transmit queue to the transport. Transport write
// failures are fatal: the worker stops and Stop is invoked to unwind the
// sibling receive loop.
func (c *Controller) sendLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case frame, ok := <-c.transmit.Items():
			if !ok {
				return
			}
			if _, err := c.transport.Write(frame); err != nil {
				logging.Error("controller: transport write failed, stopping", "err", err)
				go c.Stop()
				return
			}
			if c.metrics != nil {
				c.metrics.PacketsSent.WithLabelValues(framePacketTypeLabel(frame)).Inc()
			}
		}
	}
}

func framePacketTypeLabel(frame []byte) string {
	if len(frame) < 5 {
		return "unknown"
	}
	return esp3.PacketType(frame[4]).String()
}

// receiveLoop reads bytes off the transport, feeds the scanner, and
// dispatches whatever frames complete. It drives esp3.Scanner's
// WAIT_SYNC / READ_HEADER / READ_BODY state machine; this loop only owns
// the I/O and the local-error policy (CRC mismatches increment a counter
// and resync; everything else is surfaced to the receive queue).
func (c *Controller) receiveLoop(ctx context.Context) {
	defer c.wg.Done()
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		if tr, ok := c.transport.(timedReader); ok {
			_ = tr.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}

		n, err := c.transport.Read(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			logging.Error("controller: transport read failed, stopping", "err", err)
			go c.Stop()
			return
		}
		if n == 0 {
			continue
		}
		c.scanner.Feed(buf[:n])

		for {
			p, err := c.scanner.Next()
			if err != nil {
				if err == esp3.ErrIncomplete {
					break
				}
				if apperrors.CodeOf(err) == apperrors.CodeCrcMismatch {
					c.crcErrors.Add(1)
					if c.metrics != nil {
						c.metrics.CrcErrors.Inc()
					}
					continue
				}
				logging.Warn("controller: frame parse error", "err", err)
				continue
			}
			c.dispatch(p)
		}
	}
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	te, ok := err.(timeout)
	return ok && te.Timeout()
}

// dispatch classifies a freshly-parsed packet: radio packets get their
// direction resolved and (if UTE) the teach-in handshake run before being
// handed to the receive queue; Response packets are correlated to the
// oldest pending command; Events are logged.
func (c *Controller) dispatch(p *esp3.Packet) {
	if c.metrics != nil {
		c.metrics.PacketsReceived.WithLabelValues(p.Type.String()).Inc()
	}

	switch p.Kind {
	case esp3.KindRadio, esp3.KindUTETeachIn:
		direction := DirectionFromDevice
		if p.Sender == c.OwnAddress() {
			direction = DirectionToDevice
		}
		if p.Kind == esp3.KindUTETeachIn {
			c.handleTeachIn(p, direction)
		}
		if err := c.receive.Push(p); err != nil {
			logging.Warn("controller: receive queue push failed", "err", err)
		}
		if c.metrics != nil {
			c.metrics.ReceiveQueueDepth.Set(float64(c.receive.Len()))
		}

	case esp3.KindResponse:
		cmd, ok := c.popCommand()
		if !ok {
			logging.Warn("controller: response with no pending command", "return_code", p.ReturnCode)
			return
		}
		identity := c.Identity()
		if err := identity.applyResponse(cmd, p); err != nil {
			logging.Warn("controller: failed to apply adapter response", "command", cmd, "err", err)
			return
		}
		c.identityMu.Lock()
		c.identity = identity
		c.identityMu.Unlock()
		if cmd == esp3.CoRdIDBase {
			c.ownAddress.Store(identity.BaseID)
		}

	case esp3.KindEvent:
		logging.Info("controller: event received", "code", p.Event, "data", p.EventData)
	}
}

// handleTeachIn answers a UTE registration (or unspecified) request;
// deletion requests get no response. The response
// is enqueued onto the transmit queue before the decoded packet reaches
// the consumer, so an immediate re-query from the device finds the
// gateway ready.
func (c *Controller) handleTeachIn(p *esp3.Packet, direction Direction) {
	if !c.cfg.TeachIn {
		return
	}
	if direction == DirectionToDevice {
		// Echo of our own response via a repeater: suppress to prevent loops.
		return
	}
	if p.UTE.RequestType != esp3.UTERequestTeachIn && p.UTE.RequestType != esp3.UTERequestNotSpecific {
		return
	}

	own := c.OwnAddress()
	data, optional := esp3.BuildUTEResponse(p, own, esp3.UTEResponseCodeTeachInAccepted)
	frame := esp3.Build(esp3.PacketTypeRadioERP1, data, optional)
	if err := c.transmit.Add(frame); err != nil {
		logging.Warn("controller: UTE response dropped, transmit queue full", "err", err)
		if c.metrics != nil {
			c.metrics.TeachInsRejected.Inc()
		}
		return
	}
	if c.metrics != nil {
		c.metrics.TeachInsAccepted.Inc()
		c.metrics.TransmitQueueDepth.Set(float64(c.transmit.Len()))
	}
}
