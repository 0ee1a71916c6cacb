package ws

// remoteTracker управляет камерой в браузере клиента: трекер живет на стороне
// клиента, сервер только просит его включиться и выключиться
type remoteTracker struct {
	writer *SafeWriter
}

func (t *remoteTracker) Start() error {
	return t.writer.WriteJSON(NewCameraMessage(CameraStart))
}

func (t *remoteTracker) Stop() error {
	return t.writer.WriteJSON(NewCameraMessage(CameraStop))
}

// connListener пересылает счет и конец игры клиенту
type connListener struct {
	conn *connection
}

func (l *connListener) ScoreChanged(score int) {
	if err := l.conn.writer.WriteJSON(&ScoreMessage{Type: MessageTypeScore, Score: score}); err != nil {
		l.conn.logf("score write failed: %v", err)
	}
}

func (l *connListener) GameOver(causedByHazard bool, score int) {
	msg := &GameOverMessage{Type: MessageTypeGameOver, Hazard: causedByHazard, Score: score}
	if err := l.conn.writer.WriteJSON(msg); err != nil {
		l.conn.logf("game over write failed: %v", err)
	}
}
