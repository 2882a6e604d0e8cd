package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/kwkoo/configparser"
	"github.com/kwkoo/irremote"
	"github.com/kwkoo/irremote/irweb"
)

func main() {
	// Values in .env files don't override variables already set.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	config := struct {
		Port           int    `usage:"HTTP listener port." default:"8080"`
		Timeout        int    `usage:"Milliseconds a client has to send its request headers." default:"2000"`
		Maxheaderbytes int    `usage:"Largest request header block accepted, 0 for no limit." default:"4096"`
		Buttonspath    string `env:"BUTTONS" flag:"buttons" usage:"Path to a JSON file replacing the built-in button table."`
		Transmitter    string `usage:"IR transmitter: log, lirc, serial, mqtt or broadlink." default:"log"`
		Lircdevice     string `usage:"LIRC device used by the lirc transmitter." default:"/dev/lirc0"`
		Serialport     string `usage:"Serial port used by the serial transmitter."`
		Serialbaud     int    `usage:"Baud rate used by the serial transmitter." default:"115200"`
		Mqttbroker     string `usage:"MQTT broker URL used by the mqtt transmitter (e.g. tcp://localhost:1883)."`
		Mqtttopic      string `usage:"Tasmota topic of the IR bridge." default:"tvremote"`
		Mqttclientid   string `usage:"MQTT client ID." default:"irblaster"`
		Deviceconfig   string `env:"DEVICECONFIG" flag:"deviceconfig" usage:"Path to the JSON file specifying Broadlink device configurations."`
		Skipdiscovery  bool   `usage:"Skip the Broadlink device discovery process."`
		Rmtimeout      int    `usage:"Seconds to wait for Broadlink discovery and authentication replies." default:"5"`
		Metricsport    int    `usage:"Port for the Prometheus metrics listener, 0 to disable."`
	}{}

	if err := configparser.Parse(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing configuration: %v\n", err)
		os.Exit(1)
	}

	buttons := initializeButtons(config.Buttonspath)
	page, err := irweb.RenderPage(buttons)
	if err != nil {
		log.Fatal(err)
	}

	var tx irremote.Transmitter
	switch config.Transmitter {
	case "log":
		tx = irremote.NewLogTransmitter(nil)
	case "lirc":
		tx, err = irremote.NewLIRCTransmitter(config.Lircdevice)
	case "serial":
		tx, err = irremote.NewSerialTransmitter(config.Serialport, config.Serialbaud)
	case "mqtt":
		tx, err = irremote.NewMQTTTransmitter(config.Mqttbroker, config.Mqttclientid, config.Mqtttopic)
	case "broadlink":
		tx = initializeBroadlink(config.Deviceconfig, config.Skipdiscovery, config.Rmtimeout)
	default:
		err = fmt.Errorf("unknown transmitter %q", config.Transmitter)
	}
	if err != nil {
		log.Fatalf("Could not set up transmitter: %v", err)
	}
	log.Printf("Using %v transmitter", config.Transmitter)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup

	var metricsServer *http.Server
	if config.Metricsport > 0 {
		wg.Add(1)
		metricsServer = setupMetricsServer(config.Metricsport, &wg)
	}

	server := irweb.NewServer(irweb.NewRouter(buttons), irremote.NewDispatcher(tx), page).
		WithTimeout(time.Duration(config.Timeout) * time.Millisecond).
		WithMaxHeaderBytes(config.Maxheaderbytes)

	if err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", config.Port)); err != nil {
		log.Fatal(err)
	}
	log.Print("Interrupt signal received, initiating shutdown process...")

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	wg.Wait()

	if c, ok := tx.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Error closing transmitter: %v", err)
		}
	}

	log.Print("Shutdown successful")
}

func initializeButtons(buttonsPath string) *irremote.ButtonTable {
	if len(buttonsPath) == 0 {
		log.Print("Using built-in buttons")
		return irremote.DefaultButtons()
	}

	buttonsFile, err := os.Open(buttonsPath)
	if err != nil {
		log.Fatalf("Could not open buttons JSON file %v: %v", buttonsPath, err)
	}
	buttons, err := irweb.IngestButtons(buttonsFile)
	buttonsFile.Close()
	if err != nil {
		log.Fatalf("Error while processing buttons JSON: %v", err)
	}

	log.Printf("Processed %d buttons", buttons.Count())
	return buttons
}

func initializeBroadlink(deviceConfigPath string, skipDiscovery bool, timeout int) *irremote.Broadlink {
	broadlink := irremote.NewBroadlink().WithTimeout(timeout)

	if len(deviceConfigPath) > 0 {
		deviceConfigFile, err := os.Open(deviceConfigPath)
		if err != nil {
			log.Fatalf("Could not open device configurations JSON file %v: %v", deviceConfigPath, err)
		}
		dc, err := irweb.IngestDeviceConfig(deviceConfigFile)
		deviceConfigFile.Close()
		if err != nil {
			log.Fatalf("Error while processing device configurations JSON: %v", err)
		}
		for _, d := range dc {
			if err := broadlink.AddManualDevice(d.IP, d.Mac, d.DeviceType); err != nil {
				log.Fatalf("Error adding manual device configuration: %v", err)
			}
		}
		log.Printf("Added %v devices manually", broadlink.Count())
		return broadlink
	}

	if !skipDiscovery {
		if err := broadlink.Discover(); err != nil {
			log.Fatal(err)
		}
	}

	count := broadlink.Count()
	if count == 0 {
		log.Fatal("Did not discover any devices")
	}
	log.Printf("Discovered %d devices", count)
	return broadlink
}

func setupMetricsServer(port int, wg *sync.WaitGroup) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		defer wg.Done()
		log.Print("Metrics server listening on port ", port)
		if err := server.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Print("Metrics server graceful shutdown")
				return
			}
			log.Fatal(err)
		}
	}()

	return server
}
