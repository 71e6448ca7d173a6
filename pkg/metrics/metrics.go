// Package metrics exposes every live ROHC context as Prometheus metrics:
// a mutex-guarded map the application registers/forgets contexts into,
// and a Collect pass that walks the map on every scrape rather than
// pushing on every packet. The collector walks rctx.Context,
// IPHeaderInfo, and UDPInfo's `rohc:"..."` struct tags via reflection
// at startup to build its metric descriptors, rather than hand-listing
// every field against its Prometheus name.
package metrics

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/runZeroInc/rohc/pkg/rctx"
)

// metricField is one Prometheus series derived from a tagged struct
// field, plus the closure that reads its current value off a context.
type metricField struct {
	desc    *prometheus.Desc
	valType prometheus.ValueType
	get     func(ctx *rctx.Context) (float64, bool)
}

// Collector implements prometheus.Collector over a set of tracked ROHC
// contexts, keyed by CID.
type Collector struct {
	mu       sync.Mutex
	contexts map[uint16]*rctx.Context
	fields   []metricField
}

// NewCollector builds a Collector. constLabels are attached to every
// metric, e.g. {"role": "compressor", "hostname": ...}.
func NewCollector(constLabels prometheus.Labels) *Collector {
	return &Collector{
		contexts: make(map[uint16]*rctx.Context),
		fields:   buildFields(constLabels),
	}
}

// Track registers ctx so it is scraped on every Collect call until
// Forget is called.
func (c *Collector) Track(ctx *rctx.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[ctx.CID] = ctx
}

// Forget removes cid from the tracked set, e.g. on context eviction.
func (c *Collector) Forget(cid uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contexts, cid)
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, f := range c.fields {
		descs <- f.desc
	}
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for cid, ctx := range c.contexts {
		label := strconv.Itoa(int(cid))
		for _, f := range c.fields {
			v, ok := f.get(ctx)
			if !ok {
				continue
			}
			metrics <- prometheus.MustNewConstMetric(f.desc, f.valType, v, label)
		}
	}
}

// rohcTag holds one field's parsed `rohc:"name=...,help='...'"` tag.
type rohcTag struct {
	name    string
	help    string
	counter bool
}

// parseRohcTag parses the comma-separated key=value (or key='quoted
// value') pairs cmd/prom-metrics-gen's tcpi-tag parser also used, just
// retargeted at the `rohc` tag key instead of `tcpi`.
func parseRohcTag(tag reflect.StructTag) (rohcTag, bool) {
	raw, ok := tag.Lookup("rohc")
	if !ok {
		return rohcTag{}, false
	}
	out := rohcTag{}
	for raw != "" {
		eq := strings.Index(raw, "=")
		if eq == -1 {
			break
		}
		key := raw[:eq]
		raw = raw[eq+1:]
		var value string
		if strings.HasPrefix(raw, "'") {
			raw = raw[1:]
			end := strings.Index(raw, "'")
			if end == -1 {
				break
			}
			value = raw[:end]
			raw = raw[end+1:]
			raw = strings.TrimPrefix(raw, ",")
		} else if comma := strings.Index(raw, ","); comma != -1 {
			value = raw[:comma]
			raw = raw[comma+1:]
		} else {
			value = raw
			raw = ""
		}
		switch key {
		case "name":
			out.name = value
		case "help":
			out.help = value
		case "prom_type":
			out.counter = value == "counter"
		}
	}
	if out.name == "" {
		return rohcTag{}, false
	}
	return out, true
}

// numericValue converts a reflect.Value to float64 for the field kinds
// a Prometheus gauge/counter can represent; ok is false for fields like
// net.IP or *wlsb.Window that carry no scalar reading.
func numericValue(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	default:
		return 0, false
	}
}

// fieldKindSupported reports whether a struct field's static kind will
// ever produce a numericValue, so buildFields can skip registering a
// Desc for fields (net.IP, *wlsb.Window) that can never be collected.
func fieldKindSupported(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func buildFields(constLabels prometheus.Labels) []metricField {
	var fields []metricField

	appendStructFields(&fields, reflect.TypeOf(rctx.Context{}), "rohc_", constLabels,
		func(fieldName string) func(*rctx.Context) (float64, bool) {
			return func(ctx *rctx.Context) (float64, bool) {
				return numericValue(reflect.ValueOf(ctx).Elem().FieldByName(fieldName))
			}
		})

	appendStructFields(&fields, reflect.TypeOf(rctx.IPHeaderInfo{}), "rohc_outer_", constLabels,
		func(fieldName string) func(*rctx.Context) (float64, bool) {
			return func(ctx *rctx.Context) (float64, bool) {
				if ctx.Outer == nil {
					return 0, false
				}
				return numericValue(reflect.ValueOf(ctx.Outer).Elem().FieldByName(fieldName))
			}
		})

	appendStructFields(&fields, reflect.TypeOf(rctx.UDPInfo{}), "rohc_udp_", constLabels,
		func(fieldName string) func(*rctx.Context) (float64, bool) {
			return func(ctx *rctx.Context) (float64, bool) {
				if !ctx.HasUDP {
					return 0, false
				}
				return numericValue(reflect.ValueOf(ctx.UDP).FieldByName(fieldName))
			}
		})

	return fields
}

// appendStructFields walks t's fields, registering one metricField per
// `rohc`-tagged field whose kind numericValue can read, using mkGetter
// to close over each field's name.
func appendStructFields(fields *[]metricField, t reflect.Type, prefix string, constLabels prometheus.Labels, mkGetter func(fieldName string) func(*rctx.Context) (float64, bool)) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := parseRohcTag(f.Tag)
		if !ok || !fieldKindSupported(f.Type.Kind()) {
			continue
		}
		valType := prometheus.GaugeValue
		if tag.counter {
			valType = prometheus.CounterValue
		}
		*fields = append(*fields, metricField{
			desc:    prometheus.NewDesc(prefix+tag.name, tag.help, []string{"cid"}, constLabels),
			valType: valType,
			get:     mkGetter(f.Name),
		})
	}
}
