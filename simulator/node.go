package simulator

import (
	"errors"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-stakesim/consensus"
	"github.com/rony4d/go-stakesim/inter"
)

// Node is one simulated peer: an account, its consensus strategy and its
// current view of the chain.
type Node struct {
	id     idx.ValidatorID
	region Region
	algo   consensus.Algorithm
	sim    *Simulation
	log    log.Logger

	head      *inter.Block
	neighbors []*Node
	mint      *Timer
	seen      map[inter.BlockID]struct{}
	orphans   []*inter.Block

	minted   uint64
	adopted  uint64
	rejected uint64
}

func newNode(sim *Simulation, id idx.ValidatorID, region Region, algo consensus.Algorithm) *Node {
	return &Node{
		id:     id,
		region: region,
		algo:   algo,
		sim:    sim,
		log:    sim.log.New("node", id),
		seen:   make(map[inter.BlockID]struct{}),
	}
}

// ID is the node's account id.
func (n *Node) ID() idx.ValidatorID {
	return n.id
}

// Region is where the node lives.
func (n *Node) Region() Region {
	return n.region
}

// Head is the node's current head, nil before genesis arrives.
func (n *Node) Head() *inter.Block {
	return n.head
}

// Neighbors returns the ids of the node's peers.
func (n *Node) Neighbors() []idx.ValidatorID {
	ids := make([]idx.ValidatorID, len(n.neighbors))
	for i, nb := range n.neighbors {
		ids[i] = nb.id
	}
	return ids
}

// Orphans lists the blocks this node saw leave or never join its chain.
func (n *Node) Orphans() []*inter.Block {
	return n.orphans
}

// DeliverBlock hands a block to the node, as the network does on arrival.
// The node adopts it if its consensus rule says so, and then relays it.
// Blocks the node has already seen are ignored.
func (n *Node) DeliverBlock(b *inter.Block) {
	if _, ok := n.seen[b.ID]; ok {
		return
	}
	n.seen[b.ID] = struct{}{}

	if !n.algo.IsValid(b, n.head) {
		n.rejected++
		if n.head != nil && !n.sim.tree.IsAncestor(b, n.head) {
			n.orphans = append(n.orphans, b)
		}
		n.log.Trace("Rejected block", "block", b, "td", b.TotalDifficulty, "head", n.head)
		n.sim.rec.BlockRejected(n.id, n.sim.report(b))
		return
	}
	n.adopt(b)
}

func (n *Node) adopt(b *inter.Block) {
	if n.head != nil && !n.sim.tree.IsAncestor(n.head, b) {
		n.orphans = append(n.orphans, n.head)
	}
	n.head = b
	n.adopted++
	n.log.Trace("Adopted block", "block", b, "td", b.TotalDifficulty)
	n.sim.rec.BlockAdopted(n.id, n.sim.report(b))
	n.sim.observeHead(b)

	n.scheduleMint()
	n.relay(b)
}

// scheduleMint replaces any pending mint with a fresh draw on the current
// head.
func (n *Node) scheduleMint() {
	n.mint.Cancel()
	n.mint = nil
	plan, ok := n.algo.NextMint(n.head, n.sim.rng)
	if !ok {
		return
	}
	n.mint = n.sim.sched.After(plan.Delay, func() {
		n.fireMint(plan)
	})
}

func (n *Node) fireMint(plan consensus.MintPlan) {
	n.mint = nil
	b, err := n.algo.Mint(plan, n.sim.sched.Now())
	if errors.Is(err, consensus.ErrNoStake) {
		return
	}
	if err != nil {
		n.sim.abort(err)
		return
	}
	n.minted++
	n.log.Debug("Minted block", "block", b, "difficulty", b.Difficulty, "reward", b.Reward)
	n.sim.rec.BlockProduced(n.sim.report(b))
	n.DeliverBlock(b)
	if n.head != b {
		// the own block lost to the current head; keep minting on it
		n.scheduleMint()
	}
}

func (n *Node) relay(b *inter.Block) {
	size := n.sim.cfg.BlockSize
	for _, nb := range n.neighbors {
		nb := nb
		delay := PropagationDelay(size, n.region, nb.region, n.sim.rng)
		n.sim.sched.After(delay, func() {
			nb.DeliverBlock(b)
		})
	}
}
