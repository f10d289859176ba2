package main

import (
	"flag"
	"log"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/protobuf/proto"

	pb "github.com/robotalks/send-gcode/pkg/proto/gcode/v1"
	"github.com/robotalks/send-gcode/pkg/report"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("SEND_GCODE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, topicPrefix, err := report.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	topic := topicPrefix + "+" + report.ProgressTopic
	opts.SetOnConnectHandler(func(c paho.Client) {
		log.Printf("connected, SUB %q", topic)
		c.Subscribe(topic, 0, func(c paho.Client, msg paho.Message) {
			var progress pb.Progress
			if err := proto.Unmarshal(msg.Payload(), &progress); err != nil {
				log.Printf("%s: bad message: %v", msg.Topic(), err)
				return
			}
			log.Printf("%s: [%s] %s", msg.Topic(), progress.Event, progress.String())
		})
	})
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
