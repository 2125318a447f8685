package netflowlegacy

import "fmt"

func (p *PacketNetFlowV5) String() string {
	return fmt.Sprintf("NetFlowV%d seq:%d count:%d", p.Version, p.FlowSequence, p.Count)
}
