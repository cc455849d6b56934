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

import "github.com/google/uuid"

// NewInstanceId generates a fresh random instance identifier, the Go
// analogue of the original runtime's UUID-based instance ids assigned at
// flow instantiation time.
func NewInstanceId() string {
	return uuid.NewString()
}

// InstanceContext identifies one running instantiation of a flow: which
// flow definition it came from, which instance of it this is, and which
// runtime (physical/process boundary) hosts it (spec.md §5, modeled on
// the original runtime's InstanceContext). It is read-only after
// construction and shared by reference among every RunnerManager of the
// instance.
type InstanceContext struct {
	FlowId     string
	InstanceId string
	RuntimeId  string
}

// NewInstanceContext builds an InstanceContext for one flow instance.
func NewInstanceContext(flowId, instanceId, runtimeId string) InstanceContext {
	return InstanceContext{FlowId: flowId, InstanceId: instanceId, RuntimeId: runtimeId}
}

// RecorderResourceKey builds the pub/sub resource key a Logger attached
// to nodeId/portId within this instance publishes recorded messages
// under (spec.md §13, format carried over from the original runtime:
// "/zf/record/{flow_id}/{instance_id}/{node_id}/{port_id}").
func (c InstanceContext) RecorderResourceKey(nodeId NodeId, portId PortId) string {
	return "/zf/record/" + c.FlowId + "/" + c.InstanceId + "/" + string(nodeId) + "/" + string(portId)
}

// RecorderId deterministically names the Logger node tapping
// nodeId/portId, matching the original runtime's
// "logger-{flow_id}-{instance_id}-{node_id}-{port_id}" scheme so a
// recorder can be found again across restarts.
func (c InstanceContext) RecorderId(nodeId NodeId, portId PortId) NodeId {
	return NodeId("logger-" + c.FlowId + "-" + c.InstanceId + "-" + string(nodeId) + "-" + string(portId))
}
