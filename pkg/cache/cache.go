package cache

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache is a weight bounded, least recently used cache.
type Cache interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int

	// Insert stores value under key, replacing any previous value. Least
	// recently used entries are evicted until the total weight fits the
	// budget.
	Insert(key string, value interface{}, weight int)

	Retrieve(key string) (interface{}, bool)
	Len() int
	Clear()
}

type entry struct {
	key    string
	value  interface{}
	weight int
}

type cache struct {
	log *logrus.Entry

	mu      sync.Mutex
	order   *list.List
	lookup  map[string]*list.Element
	weight  int
	budget  int
	verbose bool
}

func NewCache(budget int) Cache {
	return &cache{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		order:  list.New(),
		lookup: make(map[string]*list.Element),
		budget: budget,
	}
}

func (c *cache) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *cache) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) Insert(key string, value interface{}, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lookup[key]; ok {
		e := existing.Value.(*entry)
		c.weight += weight - e.weight
		e.value = value
		e.weight = weight
		c.order.MoveToFront(existing)
	} else {
		c.lookup[key] = c.order.PushFront(&entry{key: key, value: value, weight: weight})
		c.weight += weight
	}

	for c.weight > c.budget {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}

		evicted := c.order.Remove(oldest).(*entry)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}
}

// Retrieve returns the value stored under key and marks it as recently used.
func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.lookup[key]
	if !ok {
		return nil, false
	}

	c.order.MoveToFront(element)
	return element.Value.(*entry).value, true
}

func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.lookup = make(map[string]*list.Element)
	c.weight = 0
}
