package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalBroker_On(t *testing.T) {
	broker := NewLocalBroker()

	called := 0
	receivedSessionId := ""
	receivedArgs := []interface{}{}

	wg := sync.WaitGroup{}
	wg.Add(1)

	broker.On(QUESTION_PUSH, func(sessionId string, args ...interface{}) {
		called++
		receivedSessionId = sessionId
		receivedArgs = args
		wg.Done()
	})
	broker.Emit(SESSION_START, "1")
	broker.Emit(QUESTION_PUSH, "2", "foo", "bar")

	wg.Wait()

	assert.Equal(t, 1, called)
	assert.Equal(t, "2", receivedSessionId)
	assert.Equal(t, []interface{}{"foo", "bar"}, receivedArgs)
}

func TestLocalBroker_OnAny(t *testing.T) {
	broker := NewLocalBroker()

	var receivedEvent EventType
	receivedSessionId := ""
	receivedArgs := []interface{}{}

	wg := sync.WaitGroup{}
	wg.Add(1)

	broker.OnAny(func(eventType EventType, sessionId string, args ...interface{}) {
		receivedSessionId = sessionId
		receivedArgs = args
		receivedEvent = eventType
		wg.Done()
	})
	broker.Emit(SESSION_END, "1")

	wg.Wait()

	var expectedArgs []interface{}
	assert.Equal(t, SESSION_END, receivedEvent)
	assert.Equal(t, "1", receivedSessionId)
	assert.Equal(t, expectedArgs, receivedArgs)
}

func TestLocalBroker_MultipleHandlers(t *testing.T) {
	broker := NewLocalBroker()

	var mu sync.Mutex
	received := []string{}

	wg := sync.WaitGroup{}
	wg.Add(3)

	record := func(name string) Handler {
		return func(sessionId string, args ...interface{}) {
			mu.Lock()
			received = append(received, name+":"+sessionId)
			mu.Unlock()
			wg.Done()
		}
	}
	broker.On(WORK_UPDATE, record("a"))
	broker.On(WORK_UPDATE, record("b"))
	broker.OnAny(func(eventType EventType, sessionId string, args ...interface{}) {
		record("any")(sessionId, args...)
	})
	broker.Emit(WORK_UPDATE, "s1")

	wg.Wait()

	assert.ElementsMatch(t, []string{"a:s1", "b:s1", "any:s1"}, received)
}

func TestLocalBroker_Order(t *testing.T) {
	broker := NewLocalBroker()

	var mu sync.Mutex
	received := []EventType{}

	wg := sync.WaitGroup{}
	wg.Add(2000)

	broker.OnAny(func(eventType EventType, sessionId string, args ...interface{}) {
		mu.Lock()
		received = append(received, eventType)
		mu.Unlock()
		wg.Done()
	})
	for i := 0; i < 1000; i++ {
		broker.Emit(PRESENCE_ENTER, "s1", "ada")
		broker.Emit(PRESENCE_LEAVE, "s1", "ada")
	}

	wg.Wait()

	for i := 0; i < 1000; i++ {
		assert.Equal(t, PRESENCE_ENTER, received[2*i], "event %d", 2*i)
		assert.Equal(t, PRESENCE_LEAVE, received[2*i+1], "event %d", 2*i+1)
	}
}

func TestLocalBroker_EmitFromHandler(t *testing.T) {
	broker := NewLocalBroker()

	wg := sync.WaitGroup{}
	wg.Add(1)

	broker.On(SESSION_NEW, func(sessionId string, args ...interface{}) {
		broker.Emit(SESSION_START, sessionId)
	})
	broker.On(SESSION_START, func(sessionId string, args ...interface{}) {
		assert.Equal(t, "s1", sessionId)
		wg.Done()
	})
	broker.Emit(SESSION_NEW, "s1")

	wg.Wait()
}
