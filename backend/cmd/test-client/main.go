package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"x-slice/backend/internal/leaderboard"
	"x-slice/backend/internal/transport/ws"
)

func main() {
	var (
		serverURL = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		apiURL    = flag.String("api", "", "Базовый URL таблицы рекордов, например http://localhost:8080")
		messages  = flag.Int("messages", 10, "Сколько сообщений прочитать")
	)
	flag.Parse()

	// Подключаемся к серверу
	u, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Неверный URL: %v", err)
	}

	log.Printf("Подключение к %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	log.Printf("Успешно подключен")

	if err := conn.WriteJSON(ws.PingMessage{Type: ws.MessageTypePing, ClientTime: time.Now().UnixMilli()}); err != nil {
		log.Fatalf("Ошибка отправки пинга: %v", err)
	}

	// Читаем сообщения от сервера
	for i := 0; i < *messages; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Ошибка чтения сообщения: %v", err)
			break
		}

		msgType, err := ws.GetMessageType(data)
		if err != nil {
			log.Printf("Ошибка разбора сообщения: %v", err)
			continue
		}

		switch msgType {
		case ws.MessageTypeInfo:
			var info ws.InfoMessage
			if err := json.Unmarshal(data, &info); err == nil {
				log.Printf("INFO: %s (session %s)", info.Message, info.SessionID)
			}

		case ws.MessageTypePong:
			var pong ws.PongMessage
			if err := json.Unmarshal(data, &pong); err == nil {
				log.Printf("PONG: rtt %dms", time.Now().UnixMilli()-pong.ClientTime)
			}

		case ws.MessageTypeFrame:
			var frame ws.FrameMessage
			if err := json.Unmarshal(data, &frame); err == nil {
				log.Printf("FRAME: state=%s score=%d objects=%d field=%.0fx%.0f",
					frame.State, frame.Score, len(frame.Objects), frame.Width, frame.Height)
			}

		default:
			log.Printf("%s: %s", msgType, string(data))
		}
	}

	if *apiURL == "" {
		return
	}

	client := leaderboard.NewClient(*apiURL, &http.Client{Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := client.Top(ctx)
	if err != nil {
		log.Fatalf("Ошибка запроса рекордов: %v", err)
	}
	log.Printf("Таблица рекордов (%d):", len(entries))
	for i, e := range entries {
		log.Printf("  %2d. %-20s %d", i+1, e.Name, e.Score)
	}
}
