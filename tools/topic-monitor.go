//go:build ignore

// Topic-monitor subscribes to a SensDot node's topic tree and prints
// every message as it arrives. Development aid for watching a node's
// duty cycle from a workstation:
//
//	go run tools/topic-monitor.go -broker 192.168.1.10 -prefix sensdot/a1b2c3d4e5f6
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func main() {
	broker := flag.String("broker", "localhost", "broker host or IP")
	port := flag.Int("port", 1883, "broker port")
	username := flag.String("username", "", "broker username")
	password := flag.String("password", "", "broker password")
	prefix := flag.String("prefix", "sensdot/#", "topic prefix to watch (a bare prefix watches its whole subtree)")
	flag.Parse()

	topic := *prefix
	if topic != "" && topic[len(topic)-1] != '#' {
		topic += "/#"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", *broker, *port)).
		SetClientID(fmt.Sprintf("sensdot-monitor-%d", os.Getpid())).
		SetCleanSession(true)
	if *username != "" {
		opts.SetUsername(*username)
		opts.SetPassword(*password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	count := 0
	token := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		count++
		stamp := time.Now().Format("15:04:05.000")
		retained := ""
		if msg.Retained() {
			retained = " [retained]"
		}
		fmt.Printf("%s  %s%s\n", stamp, msg.Topic(), retained)
		fmt.Printf("    %s\n", prettyPayload(msg.Payload()))
	})
	if token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "subscribe failed: %v\n", token.Error())
		os.Exit(1)
	}

	fmt.Printf("Watching %s on %s:%d (ctrl+c to stop)\n\n", topic, *broker, *port)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	fmt.Printf("\n%d messages seen\n", count)
}

// prettyPayload re-indents JSON payloads and passes everything else
// through untouched
func prettyPayload(payload []byte) string {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return string(payload)
	}
	pretty, err := json.MarshalIndent(decoded, "    ", "  ")
	if err != nil {
		return string(payload)
	}
	return string(pretty)
}
