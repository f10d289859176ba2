// Package report publishes transfer progress to an MQTT broker.
package report

import (
	"context"
	"net/url"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/robotalks/send-gcode/pkg/gcode"
	pb "github.com/robotalks/send-gcode/pkg/proto/gcode/v1"
)

// ProgressTopic is the topic suffix for progress messages.
const ProgressTopic = "/progress"

// Publisher publishes Sender events as Progress messages.
// It implements gcode.Observer.
type Publisher struct {
	Client      paho.Client
	TopicPrefix string
	ID          string
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The path of the URL is used as topic prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", errors.Wrapf(err, "invalid broker URL %q", serverURL)
	}
	if u.Host == "" {
		return nil, "", errors.Errorf("invalid broker URL %q: missing host", serverURL)
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}
	return opts, topicPrefix, nil
}

// NewPublisher creates a Publisher.
func NewPublisher(options *paho.ClientOptions, topicPrefix, id string) *Publisher {
	options.SetOnConnectHandler(func(paho.Client) {
		glog.Info("mqtt connected")
	})
	options.SetConnectionLostHandler(func(c paho.Client, err error) {
		glog.Warningf("mqtt connection lost: %v", err)
	})
	return &Publisher{
		Client:      paho.NewClient(options),
		TopicPrefix: topicPrefix,
		ID:          id,
	}
}

// NewPublisherFromURL creates Publisher from URL.
func NewPublisherFromURL(brokerURL, id string) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = DefaultID()
	}
	return NewPublisher(opts, topicPrefix, id), nil
}

// Topic returns the full topic progress is published to.
func (p *Publisher) Topic() string {
	return p.TopicPrefix + p.ID + ProgressTopic
}

// Message converts an event into a Progress message.
func (p *Publisher) Message(ev gcode.Event) *pb.Progress {
	msg := &pb.Progress{
		Id:       p.ID,
		Event:    ev.Kind.String(),
		Line:     ev.Line,
		Consumed: uint64(ev.Progress.Consumed),
		Total:    uint64(ev.Progress.Total),
		Frames:   uint64(ev.Progress.Frames),
		Done:     ev.Progress.Done,
	}
	if ev.Kind == gcode.EventFrame {
		msg.Command = string(ev.Payload)
	}
	return msg
}

// Observe implements gcode.Observer.
func (p *Publisher) Observe(ev gcode.Event) {
	payload, err := proto.Marshal(p.Message(ev))
	if err != nil {
		glog.Errorf("encode progress error: %v", err)
		return
	}
	topic := p.Topic()
	glog.V(2).Infof("PUB %q %s", topic, ev.Kind)
	// The final message is retained so late subscribers see the result.
	p.Client.Publish(topic, 0, ev.Kind == gcode.EventDone, payload)
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.Client.Connect()
	connected := make(chan error, 1)
	go func() {
		token.Wait()
		connected <- token.Error()
	}()
	select {
	case <-ctx.Done():
		p.Client.Disconnect(0)
		return ctx.Err()
	case err := <-connected:
		if err != nil {
			return errors.Wrap(err, "mqtt connect")
		}
	}
	<-ctx.Done()
	p.Client.Disconnect(250)
	return ctx.Err()
}
