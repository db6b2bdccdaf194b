package arbor

// Fixture types shared across the test suite. They mirror the two kinds of
// values the library hosts: plain leaf values copied by assignment, and
// composite values that own member nodes and implement Clone.

type person struct {
	name string
	age  int
}

type employee struct {
	data       Node[person]
	department Node[string]
	salary     float64
}

func (e *employee) Clone(tx *Tx) employee {
	return employee{
		data:       e.data.Copy(tx),
		department: e.department.Copy(tx),
		salary:     e.salary,
	}
}

func newEmployee(name string, age int, department string, salary float64) employee {
	return employee{
		data:       NewNode(person{name: name, age: age}),
		department: NewNode(department),
		salary:     salary,
	}
}

type company struct {
	staff []Node[employee]
	ceo   Node[employee]
}

func (c *company) Clone(tx *Tx) company {
	out := company{
		staff: make([]Node[employee], len(c.staff)),
		ceo:   c.ceo.Copy(tx),
	}
	for i := range c.staff {
		out.staff[i] = c.staff[i].Copy(tx)
	}
	return out
}

// pair is the smallest tree with two independent branches.
type pair struct {
	a Node[int]
	b Node[int]
}

func (p *pair) Clone(tx *Tx) pair {
	return pair{a: p.a.Copy(tx), b: p.b.Copy(tx)}
}

func newPair(a, b int) pair {
	return pair{a: NewNode(a), b: NewNode(b)}
}
