package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tarm/serial"
	bolt "go.etcd.io/bbolt"

	"github.com/serebryakov7/obd2-stats/common"
	"github.com/serebryakov7/obd2-stats/internal/config"
	"github.com/serebryakov7/obd2-stats/internal/obd2"
	"github.com/serebryakov7/obd2-stats/internal/report"
	"github.com/serebryakov7/obd2-stats/pkg/mqtt"
	"github.com/serebryakov7/obd2-stats/pkg/storage"
)

var (
	configPath       = flag.String("config", "", "Путь к YAML файлу конфигурации (опционально)")
	transportType    = flag.String("transport", config.DefaultTransportType, "Транспорт: can (SocketCAN) или slcan (USB-serial адаптер)")
	canInterface     = flag.String("can-if", config.DefaultCANInterface, "Имя CAN интерфейса (например, can0)")
	portName         = flag.String("port", config.DefaultSerialPort, "Последовательный порт slcan адаптера")
	baudRate         = flag.Int("baud", config.DefaultSerialBaud, "Скорость порта slcan адаптера в бодах")
	mqttBroker       = flag.String("broker", mqtt.DefaultBroker, "MQTT брокер")
	mqttTopic        = flag.String("topic", mqtt.DefaultTopic, "MQTT топик для данных")
	mqttCommandTopic = flag.String("command_topic", config.DefaultMQTTCommandTopic, "MQTT топик для команд")
	updateInterval   = flag.Duration("interval", mqtt.DefaultUpdateInterval, "Интервал публикации в MQTT")
	cycleInterval    = flag.Duration("cycle", obd2.DefaultCycleInterval, "Интервал цикла опроса")
	requestTimeout   = flag.Duration("timeout", obd2.DefaultTimeout, "Таймаут ожидания ответа ECU")
	pollBackoff      = flag.Duration("backoff", obd2.DefaultBackoff, "Пауза между проверками транспорта")
	paramNames       = flag.String("params", "", "Опрашиваемые параметры через запятую (по умолчанию - стандартный набор)")
	dbPath           = flag.String("dbpath", config.DefaultDBPath, "Путь к bbolt базе кеша возможностей ECU")
	reportPort       = flag.String("report-port", "", "Последовательный порт для текстового отчета (по умолчанию - stdout)")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("Запуск агента OBD-II...")

	cfg := loadConfig()

	params, unknown := obd2.SelectParameters(cfg.Agent.Parameters)
	if len(unknown) > 0 {
		log.Fatalf("Неизвестные параметры: %s", strings.Join(unknown, ", "))
	}

	// Инициализация транспорта. Ошибка здесь фатальна:
	// без шины агент работать не может.
	tr, err := openTransport(cfg.Agent.Transport)
	if err != nil {
		log.Fatalf("Ошибка инициализации CAN транспорта: %v", err)
	}
	defer tr.Close()
	log.Println("CAN транспорт инициализирован.")

	// Кеш маски поддерживаемых PID
	db, err := storage.OpenDB(cfg.Agent.DBPath)
	if err != nil {
		log.Fatalf("Ошибка открытия bbolt DB %s: %v", cfg.Agent.DBPath, err)
	}
	defer db.Close()

	cachedMask, cached, err := storage.LoadSupportedMask(db)
	if err != nil {
		log.Printf("Ошибка чтения кешированной маски PID: %v", err)
		cached = false
	}

	reporter, closeReport := openReporter(cfg)
	defer closeReport()

	clock := obd2.SystemClock()
	reader := obd2.NewReader(tr, clock,
		time.Duration(cfg.Agent.Poll.TimeoutMs)*time.Millisecond,
		time.Duration(cfg.Agent.Poll.BackoffMs)*time.Millisecond)
	scheduler := obd2.NewScheduler(time.Duration(cfg.Agent.Poll.CycleMs)*time.Millisecond, clock)
	snapshot := obd2.NewSnapshot()

	poller := obd2.NewPoller(obd2.PollerConfig{
		Reader:    reader,
		Scheduler: scheduler,
		Params:    params,
		Snapshot:  snapshot,
		Reporter:  reporter,
		SaveMask: func(mask uint32) {
			if err := storage.SaveSupportedMask(db, mask); err != nil {
				log.Printf("Ошибка сохранения маски PID в bbolt: %v", err)
			}
		},
	})

	poller.ProbeCapabilities(cachedMask, cached)

	// Настраиваем MQTT клиент
	mqttConfig := mqtt.MQTTConfig{
		Broker:         cfg.Agent.MQTT.Broker,
		ClientID:       "obd2-agent",
		Topic:          cfg.Agent.MQTT.Topic,
		CommandTopic:   cfg.Agent.MQTT.CommandTopic,
		UpdateInterval: time.Duration(cfg.Agent.MQTT.UpdateIntervalMs) * time.Millisecond,
	}

	mqttClient := mqtt.NewClient(mqttConfig,
		snapshot.Copy,
		func(cmd common.ServerCommand) error {
			return handleMQTTCommand(poller, db, cmd)
		})

	if err := mqttClient.Connect(); err != nil {
		log.Fatalf("Ошибка подключения к MQTT: %v", err)
	}
	defer mqttClient.Disconnect()

	mqttClient.StartPublishing()
	defer mqttClient.StopPublishing()

	stopCh := make(chan struct{})
	go poller.Run(stopCh)

	log.Println("Агент OBD-II запущен. Нажмите Ctrl+C для завершения.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Получен сигнал %s. Завершение работы...", sig)

	close(stopCh)
	log.Println("Агент OBD-II завершил работу.")
}

// loadConfig собирает итоговую конфигурацию: значения по умолчанию,
// затем YAML файл (если задан), затем явно указанные флаги.
func loadConfig() config.Config {
	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки конфигурации: %v", err)
		}
		cfg = loaded
		log.Printf("Конфигурация загружена из %s", *configPath)
	}

	applyFlags(&cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
	}
	return cfg
}

// applyFlags переносит в конфигурацию только явно указанные флаги.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		a := &cfg.Agent
		switch f.Name {
		case "transport":
			a.Transport.Type = *transportType
		case "can-if":
			a.Transport.CANInterface = *canInterface
		case "port":
			a.Transport.SerialPort = *portName
		case "baud":
			a.Transport.Baud = *baudRate
		case "broker":
			a.MQTT.Broker = *mqttBroker
		case "topic":
			a.MQTT.Topic = *mqttTopic
		case "command_topic":
			a.MQTT.CommandTopic = *mqttCommandTopic
		case "interval":
			a.MQTT.UpdateIntervalMs = int(updateInterval.Milliseconds())
		case "cycle":
			a.Poll.CycleMs = int(cycleInterval.Milliseconds())
		case "timeout":
			a.Poll.TimeoutMs = int(requestTimeout.Milliseconds())
		case "backoff":
			a.Poll.BackoffMs = int(pollBackoff.Milliseconds())
		case "params":
			a.Parameters = splitParams(*paramNames)
		case "dbpath":
			a.DBPath = *dbPath
		case "report-port":
			a.ReportPort = *reportPort
		}
	})
}

func splitParams(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// openReporter возвращает репортер для текстового отчета:
// stdout либо последовательный порт внешнего дисплея.
func openReporter(cfg config.Config) (*report.TextReporter, func()) {
	if cfg.Agent.ReportPort == "" {
		return report.NewTextReporter(os.Stdout), func() {}
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Agent.ReportPort,
		Baud: cfg.Agent.ReportBaud,
	})
	if err != nil {
		log.Fatalf("Ошибка открытия порта отчета %s: %v", cfg.Agent.ReportPort, err)
	}
	log.Printf("Текстовый отчет выводится в порт %s", cfg.Agent.ReportPort)
	return report.NewTextReporter(port), func() { port.Close() }
}

// handleMQTTCommand обрабатывает команды с сервера.
func handleMQTTCommand(poller *obd2.Poller, db *bolt.DB, cmd common.ServerCommand) error {
	log.Printf("Получена команда: %+v", cmd)

	switch cmd.Type {
	case common.CommandTypeRescanPIDs:
		// Сбрасываем кеш и просим опросчик заново определить маску
		// перед следующим циклом.
		if err := storage.ClearMask(db); err != nil {
			log.Printf("Ошибка сброса кеша маски PID: %v", err)
		}
		poller.RequestRescan()
		log.Println("Запрошено повторное определение маски поддерживаемых PID.")
		return nil
	default:
		log.Printf("Неизвестный тип команды: %s", cmd.Type)
		return nil
	}
}
