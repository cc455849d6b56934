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

import "context"

// portMsg pairs a port's Receiver result with the PortId it came from,
// so a round awaiting many Receivers concurrently can tell which one
// fired (spec.md §4.3 step 2: "wait on any one of the empty ports").
type portMsg struct {
	port PortId
	msg  Message
	err  error
}

// recvAny races one Recv call per Receiver in ports and returns the
// first one to complete. Losing goroutines are abandoned; their
// Receiver is re-raced on the next round since ctx is shared and each
// Recv is independently cancelable.
func recvAny(ctx context.Context, receivers map[PortId]Receiver, ports []PortId) portMsg {
	if len(ports) == 0 {
		<-ctx.Done()
		return portMsg{err: ctx.Err()}
	}

	results := make(chan portMsg, len(ports))
	for _, p := range ports {
		r := receivers[p]
		go func(p PortId, r Receiver) {
			msg, err := r.Recv(ctx)
			results <- portMsg{port: p, msg: msg, err: err}
		}(p, r)
	}

	return <-results
}

// runInputRules drives one node's pull loop: it keeps awaiting its
// Empty input ports, updates Tokens as messages arrive, and invokes
// rule once any progress is made, looping until rule reports a firing
// or an unrecoverable error (spec.md §4.3 "run_input_rules").
//
// Control messages (other than those the caller special-cases before
// calling in, e.g. recorder toggles) are dropped by this engine per the
// default input rule's documented behavior (spec.md §6): they never
// occupy a Token slot.
func runInputRules[S any](
	ctx context.Context,
	state S,
	rule InputRuler[S],
	receivers map[PortId]Receiver,
	tokens Tokens,
	onControl func(Message),
) (map[PortId]Message, error) {
	for {
		empty := tokens.EmptyPorts()

		if len(empty) > 0 {
			pm := recvAny(ctx, receivers, empty)
			if pm.err != nil {
				if pm.err == context.Canceled || pm.err == context.DeadlineExceeded {
					return nil, pm.err
				}

				// A single port's Receiver erroring (its link was torn
				// down) does not fail the whole round: drop only that
				// port and keep servicing the rest (spec.md §4.3 step
				// 5). Only once every port has gone this way is there
				// nothing left to ever fire on.
				tokens.SetClosed(pm.port)
				if tokens.AllClosed() {
					return nil, ErrLinkClosed
				}
				continue
			}

			if pm.msg.IsControl() {
				if onControl != nil {
					onControl(pm.msg)
				}
				continue
			}

			tokens.SetReady(pm.port, pm.msg)
		}

		fire, err := rule.InputRule(state, tokens)
		if err != nil {
			return nil, err
		}
		if fire {
			return tokens.Consume(), nil
		}

		if len(tokens.EmptyPorts()) == 0 {
			// Rule declined to fire even with every port Ready: it
			// wants something other than the default "all ready"
			// semantics (e.g. matching a punctuation pattern it tracks
			// internally) and none of the current Ready tokens satisfy
			// it. Reset every still-live token to Empty to force a
			// fresh round rather than busy-spinning InputRule against
			// unchanged state. Closed tokens are left alone: they never
			// become awaitable again.
			for id, tok := range tokens {
				if tok.State == TokenClosed {
					continue
				}
				tokens[id].State = TokenEmpty
				tokens[id].Msg = Message{}
			}
		}
	}
}
