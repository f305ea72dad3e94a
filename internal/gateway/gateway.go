package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dduransseau/enocean2mqtt/internal/config"
	"github.com/dduransseau/enocean2mqtt/internal/controller"
	"github.com/dduransseau/enocean2mqtt/internal/eep"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
	"github.com/dduransseau/enocean2mqtt/internal/logging"
	"github.com/dduransseau/enocean2mqtt/internal/metrics"
)

// Message collects what one decoded telegram yields: decoded fields keyed
// by shortcut, an optional unit side-channel, timestamp, RSSI, and the
// equipment's channel selector if it has one. It is not published as one
// JSON object: publishMessage sends each field as its own
// {value, unit, timestamp, rssi} object on a per-field topic.
type Message struct {
	Timestamp time.Time              `json:"timestamp"`
	RSSI      int                    `json:"rssi"`
	Channel   string                 `json:"channel,omitempty"`
	Fields    map[string]interface{} `json:"fields"`
	Units     map[string]string      `json:"units,omitempty"`
}

// StatusMessage is published instead of Message when a telegram could not
// be decoded (ProfileNotFound, SignalNotSupported): the envelope alone,
// so the operator still sees that a known device is alive.
type StatusMessage struct {
	Timestamp time.Time `json:"timestamp"`
	RSSI      int       `json:"rssi"`
	Reason    string    `json:"reason"`
}

// LearnNotification is published on <base>/learn when a UTE teach-in is
// accepted and a new equipment is added to the registry.
type LearnNotification struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Profile string `json:"profile"`
}

// Gateway is the consumer half of the controller/gateway split: it owns
// the equipment registry and the MQTT connection, decodes packets off the
// controller's receive queue, and turns inbound MQTT commands into
// encoded outbound packets.
type Gateway struct {
	ctrl      *controller.Controller
	catalogue *eep.Catalogue
	registry  *Registry
	mqtt      MQTTClient
	cfg       *config.Config
	metrics   *metrics.Metrics
}

// New wires a Gateway over an already-constructed Controller, EEP
// catalogue, MQTT client, and config.
func New(ctrl *controller.Controller, cat *eep.Catalogue, client MQTTClient, cfg *config.Config, m *metrics.Metrics) *Gateway {
	return &Gateway{
		ctrl:      ctrl,
		catalogue: cat,
		registry:  NewRegistry(),
		mqtt:      client,
		cfg:       cfg,
		metrics:   m,
	}
}

// Registry exposes the equipment set, e.g. for a status/health endpoint.
func (g *Gateway) Registry() *Registry { return g.registry }

// LoadEquipments populates the registry from the config file's equipment
// list, resolving each entry's profile out of the catalogue.
func (g *Gateway) LoadEquipments() error {
	for _, ec := range g.cfg.Equipments {
		eq, err := FromConfig(ec, g.catalogue)
		if err != nil {
			return err
		}
		g.registry.Add(eq)
	}
	return nil
}

// Run connects to the broker, subscribes to inbound command topics, and
// consumes the controller's receive queue until ctx is cancelled (returning
// nil) or the controller closes the queue (returning that error).
func (g *Gateway) Run(ctx context.Context) error {
	if err := g.mqtt.Connect(); err != nil {
		return err
	}
	if err := g.mqtt.Subscribe(requestTopicFilter(g.cfg.MQTT.BaseTopic), g.handleInbound); err != nil {
		return err
	}

	g.ctrl.WaitReady(ctx)
	logging.Info("gateway: controller ready", "base_id", g.ctrl.Identity().BaseID)

	for {
		p, err := g.ctrl.ReceiveQueue().Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		g.handlePacket(p)
	}
}

// handlePacket decodes one radio/UTE/event packet and publishes it.
func (g *Gateway) handlePacket(p *esp3.Packet) {
	switch p.Kind {
	case esp3.KindRadio, esp3.KindUTETeachIn:
		g.handleRadio(p)
	case esp3.KindEvent:
		logging.Info("gateway: event", "code", p.Event)
	}
}

func (g *Gateway) handleRadio(p *esp3.Packet) {
	if p.Kind == esp3.KindUTETeachIn && p.UTE.TeachIn() {
		g.handleTeachIn(p)
		return
	}

	eq := g.registry.Get(p.Sender)
	if eq == nil {
		// Unknown sender: nothing to key a topic on. Spec's ProfileNotFound
		// handling applies equally here — log and drop.
		logging.Warn("gateway: radio packet from unregistered equipment", "sender", p.Sender)
		return
	}
	eq.Touch(p.DBm, p.RepeaterCount, time.Now())

	if p.RORG == esp3.RORGSignal {
		g.publishSignal(eq, p)
		return
	}

	if eq.Profile == nil {
		if g.metrics != nil {
			g.metrics.ProfileLookupMisses.Inc()
		}
		g.publishStatus(eq, p, "profile not found")
		return
	}

	fields, err := eq.Profile.Decode(p.Payload(), p.Status, nil, nil)
	if err != nil {
		if g.metrics != nil {
			g.metrics.ProfileLookupMisses.Inc()
		}
		g.publishStatus(eq, p, err.Error())
		return
	}
	g.publishDecoded(eq, p, fields)
}

func (g *Gateway) publishSignal(eq *Equipment, p *esp3.Packet) {
	decoded, err := eep.DecodeSignal(p.Payload())
	if err != nil {
		g.publishStatus(eq, p, err.Error())
		return
	}
	msg := Message{Timestamp: time.Now(), RSSI: p.DBm, Channel: eq.Channel, Fields: decoded}
	g.publishMessage(eq, msg)
}

// publishDecoded filters "not supported" fields at the publication
// boundary, kept here rather than in decode so tests can still observe
// the full decode, and hands the remainder to publishMessage, which
// publishes one MQTT message per field.
func (g *Gateway) publishDecoded(eq *Equipment, p *esp3.Packet, fields []eep.DecodedField) {
	out := Message{Timestamp: time.Now(), RSSI: p.DBm, Channel: eq.Channel, Fields: map[string]interface{}{}}
	for _, f := range fields {
		if s, ok := f.Value.(string); ok && strings.Contains(strings.ToLower(s), "not supported") {
			continue
		}
		key := f.Shortcut
		if key == "" {
			key = f.Description
		}
		out.Fields[key] = f.Value
		if f.Unit != "" {
			if out.Units == nil {
				out.Units = map[string]string{}
			}
			out.Units[key] = f.Unit
		}
	}
	g.publishMessage(eq, out)
}

func (g *Gateway) publishMessage(eq *Equipment, msg Message) {
	for shortcut, value := range msg.Fields {
		single := struct {
			Value     interface{} `json:"value"`
			Unit      string      `json:"unit,omitempty"`
			Timestamp time.Time   `json:"timestamp"`
			RSSI      int         `json:"rssi"`
		}{Value: value, Timestamp: msg.Timestamp, RSSI: msg.RSSI}
		if msg.Units != nil {
			single.Unit = msg.Units[shortcut]
		}
		fieldPayload, err := json.Marshal(single)
		if err != nil {
			continue
		}
		topic := publishTopic(g.cfg.MQTT.BaseTopic, eq, shortcut)
		if err := g.mqtt.Publish(topic, fieldPayload, g.cfg.MQTT.Retain); err != nil {
			logging.Warn("gateway: publish failed", "topic", topic, "err", err)
		}
	}
}

func (g *Gateway) publishStatus(eq *Equipment, p *esp3.Packet, reason string) {
	msg := StatusMessage{Timestamp: time.Now(), RSSI: p.DBm, Reason: reason}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	topic := statusTopic(g.cfg.MQTT.BaseTopic, eq)
	if err := g.mqtt.Publish(topic, payload, false); err != nil {
		logging.Warn("gateway: status publish failed", "topic", topic, "err", err)
	}
}

// handleTeachIn registers a newly-announced device, appends it to the
// config file, and publishes a learn notification. When the controller's
// TeachIn is enabled and the request is a registration (or unspecified)
// one, the controller has already answered the handshake by the time this
// runs: the response is enqueued before the decoded packet reaches the
// consumer. Otherwise no response is sent, and the device is still learned.
func (g *Gateway) handleTeachIn(p *esp3.Packet) {
	if existing := g.registry.Get(p.Sender); existing != nil {
		return
	}

	profile, _ := g.catalogue.GetProfile(p.UTE.RorgOfEEP, p.UTE.RorgFunc, p.UTE.RorgType)
	eq := &Equipment{
		Address: p.Sender,
		RORG:    p.UTE.RorgOfEEP,
		Func:    p.UTE.RorgFunc,
		Type:    p.UTE.RorgType,
		Profile: profile,
		Name:    generateEquipmentName(p.Sender),
	}
	eq.ID = newEquipmentID()
	g.registry.Add(eq)

	if err := g.cfg.AppendEquipment(eq.ToConfig()); err != nil {
		logging.Error("gateway: failed to persist learned equipment", "err", err)
	}

	note := LearnNotification{ID: eq.ID.String(), Name: eq.Name, Address: eq.ToConfig().Address, Profile: eq.Code()}
	payload, err := json.Marshal(note)
	if err == nil {
		if err := g.mqtt.Publish(learnTopic(g.cfg.MQTT.BaseTopic), payload, true); err != nil {
			logging.Warn("gateway: learn notification publish failed", "err", err)
		}
	}
	logging.Info("gateway: equipment learned", "name", eq.Name, "request_topic", requestTopic(g.cfg.MQTT.BaseTopic, eq))
}

// handleInbound routes an MQTT command-topic message to its equipment,
// encodes it through the profile engine, and enqueues the resulting
// telegram on the controller's transmit queue.
func (g *Gateway) handleInbound(topic string, payload []byte) {
	name := equipmentNameFromRequestTopic(g.cfg.MQTT.BaseTopic, topic)
	if name == "" {
		return
	}
	eq := g.registry.ByName(name)
	if eq == nil || eq.Profile == nil {
		logging.Warn("gateway: inbound command for unknown/undecodable equipment", "name", name)
		return
	}

	var values map[string]interface{}
	if err := json.Unmarshal(payload, &values); err != nil {
		logging.Warn("gateway: inbound command payload is not valid JSON", "name", name, "err", err)
		return
	}

	fieldPayload, status, err := eq.Profile.Encode(values, nil, nil)
	if err != nil {
		logging.Warn("gateway: inbound command encode failed", "name", name, "err", err)
		return
	}

	own := g.ctrl.OwnAddress()
	data, optional, err := esp3.BuildRadioTelegram(eq.RORG, padPayload(eq.RORG, fieldPayload), own, eq.Address, false, status)
	if err != nil {
		logging.Warn("gateway: inbound command telegram build failed", "name", name, "err", err)
		return
	}
	frame := esp3.Build(esp3.PacketTypeRadioERP1, data, optional)
	if err := g.ctrl.TransmitQueue().Add(frame); err != nil {
		logging.Warn("gateway: transmit queue rejected outbound command", "name", name, "err", err)
		return
	}
	if g.metrics != nil {
		g.metrics.TransmitQueueDepth.Set(float64(g.ctrl.TransmitQueue().Len()))
	}
}

// padPayload sizes the profile-encoded payload to the RORG's fixed layout
// (1 byte for RPS/BS1, 4 for BS4); VLD/MSC payloads are used as-is.
func padPayload(rorg esp3.RORG, payload []byte) []byte {
	switch rorg {
	case esp3.RORGRPS, esp3.RORGBS1:
		if len(payload) >= 1 {
			return payload[:1]
		}
		return []byte{0}
	case esp3.RORGBS4:
		out := make([]byte, 4)
		copy(out, payload)
		return out
	default:
		return payload
	}
}
