package mqtt

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/serebryakov7/obd2-stats/common"
)

const (
	DefaultUpdateInterval = 10 * time.Second
	DefaultBroker         = "tcp://localhost:1883"
	DefaultClientID       = "obd2-data-collector"
	DefaultTopic          = "vehicle/data/obd2"
)

// MQTTConfig содержит настройки для MQTT клиента
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Topic          string
	CommandTopic   string // Топик для получения команд
	UpdateInterval time.Duration
}

// MQTTClient представляет MQTT клиент для отправки данных и получения команд
type MQTTClient struct {
	config     MQTTConfig
	client     mqtt.Client
	stopChan   chan struct{}
	dataSource func() json.Marshaler
	// commandHandler - функция обратного вызова для обработки команд
	commandHandler func(cmd common.ServerCommand) error
}

// NewClient создает новый MQTT клиент
func NewClient(config MQTTConfig, dataSource func() json.Marshaler, cmdHandler func(cmd common.ServerCommand) error) *MQTTClient {
	return &MQTTClient{
		config:         config,
		stopChan:       make(chan struct{}),
		dataSource:     dataSource,
		commandHandler: cmdHandler,
	}
}

// Connect устанавливает соединение с MQTT брокером
func (c *MQTTClient) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("Подключено к MQTT брокеру")
		// Подписываемся на топик команд после успешного подключения
		c.subscribeToCommands()
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("Соединение с MQTT брокером потеряно: %v", err)
	})

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

// StartPublishing начинает периодическую отправку снимка данных
func (c *MQTTClient) StartPublishing() {
	log.Printf("Начало публикации данных в MQTT на топик %s с интервалом %v", c.config.Topic, c.config.UpdateInterval)

	go func() {
		ticker := time.NewTicker(c.config.UpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopChan:
				return
			case <-ticker.C:
				c.publishData()
			}
		}
	}()
}

// StopPublishing останавливает публикацию данных
func (c *MQTTClient) StopPublishing() {
	close(c.stopChan)
}

// Disconnect отключается от MQTT брокера
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// publishData публикует снимок последнего цикла опроса в MQTT
func (c *MQTTClient) publishData() {
	snapshot := c.dataSource()
	if snapshot == nil {
		log.Println("Нет данных для публикации")
		return
	}

	data, err := snapshot.MarshalJSON()
	if err != nil {
		log.Printf("Ошибка сериализации данных: %v", err)
		return
	}

	token := c.client.Publish(c.config.Topic, 0, false, data)
	if token.Wait() && token.Error() != nil {
		log.Printf("Ошибка отправки данных в MQTT: %v", token.Error())
	} else {
		log.Printf("Данные отправлены в MQTT (%d байт)", len(data))
	}
}

// subscribeToCommands подписывается на топик команд от сервера.
func (c *MQTTClient) subscribeToCommands() {
	commandTopic := c.config.CommandTopic
	if commandTopic == "" {
		log.Println("Топик для команд не указан, подписка не будет выполнена.")
		return
	}

	token := c.client.Subscribe(commandTopic, 1, c.handleIncomingCommand)
	go func() {
		<-token.Done()
		if token.Error() != nil {
			log.Printf("Ошибка подписки на топик команд %s: %v", commandTopic, token.Error())
		} else {
			log.Printf("Успешно подписан на топик команд: %s", commandTopic)
		}
	}()
}

// handleIncomingCommand обрабатывает входящие сообщения из топика команд.
func (c *MQTTClient) handleIncomingCommand(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Получена команда из топика %s: %s", msg.Topic(), string(msg.Payload()))

	var cmd common.ServerCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("Ошибка десериализации команды: %v. Сообщение: %s", err, string(msg.Payload()))
		return
	}

	if c.commandHandler != nil {
		if err := c.commandHandler(cmd); err != nil {
			log.Printf("Ошибка обработки команды %s: %v", cmd.Type, err)
		}
	} else {
		log.Println("Обработчик команд не настроен.")
	}
}
