package zflow

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkSendRecv(t *testing.T) {
	tx, rx := NewLink("in", 1)
	ctx := context.Background()

	msg := NewDataMessage([]byte("hello"), time.Now())
	assert.NoError(t, tx.Send(ctx, msg))

	got, err := rx.Recv(ctx)
	assert.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestLinkDefaultCapacity(t *testing.T) {
	tx, _ := NewLink("in", 0)
	ls := tx.(*linkSender)
	assert.Equal(t, DefaultLinkCapacity, cap(ls.l.ch))
}

func TestLinkCloseSenderThenRecv(t *testing.T) {
	tx, rx := NewLink("in", 1)
	ctx := context.Background()

	msg := NewDataMessage([]byte("hello"), time.Now())
	assert.NoError(t, tx.Send(ctx, msg))
	tx.Close()

	got, err := rx.Recv(ctx)
	assert.NoError(t, err, "buffered message still delivered after sender close")
	assert.Equal(t, msg, got)

	_, err = rx.Recv(ctx)
	assert.ErrorIs(t, err, ErrLinkClosed)
}

func TestLinkSendAfterSenderClose(t *testing.T) {
	tx, _ := NewLink("in", 1)
	tx.Close()
	err := tx.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrLinkClosed)
}

func TestLinkCloseReceiverUnblocksSender(t *testing.T) {
	tx, rx := NewLink("in", 0)
	rx.Close()

	err := tx.Send(context.Background(), NewDataMessage([]byte("x"), time.Now()))
	assert.ErrorIs(t, err, ErrLinkClosed)
}

func TestLinkSendRespectsContext(t *testing.T) {
	tx, _ := NewLink("in", 1)
	// Fill the single buffer slot so the next Send has to suspend.
	assert.NoError(t, tx.Send(context.Background(), Message{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tx.Send(ctx, Message{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputFanoutPublish(t *testing.T) {
	fo := NewOutputFanout("out")
	_, rx1 := addFanoutLink(t, fo)
	_, rx2 := addFanoutLink(t, fo)

	msg := NewDataMessage([]byte("fanout"), time.Now())
	assert.NoError(t, fo.Publish(context.Background(), msg))

	got1, err := rx1.Recv(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, msg, got1)

	got2, err := rx2.Recv(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, msg, got2)

	assert.Len(t, fo.Senders(), 2)
}

func addFanoutLink(t *testing.T, fo *OutputFanout) (Sender, Receiver) {
	t.Helper()
	tx, rx := NewLink("out", 1)
	fo.Add(tx)
	return tx, rx
}
