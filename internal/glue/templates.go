package glue

// defaultAsyncRequireTpl is the async module-loader shim injected into the
// business bundle. Chunks are fetched from chunkDir and evaluated through
// the loader module.
const defaultAsyncRequireTpl = `/**
 * Generated by {{.PackageName}}. Do not edit.
 */
'use strict';

var loader = require('{{.LoaderModulePath}}');

var CHUNK_DIR = '{{.ChunkDir}}';
var FILE_SUFFIX = '{{.FileSuffix}}';
var HASH_LENGTH = {{.HashLength}};
var LOAD_TIMEOUT_MS = {{.TimeoutMS}};

var inflight = {};

function chunkUrl(chunkName, chunkHash) {
  var hash = HASH_LENGTH > 0 ? '.' + String(chunkHash).slice(0, HASH_LENGTH) : '';
  return CHUNK_DIR + '/' + chunkName + hash + FILE_SUFFIX;
}

function asyncRequire(moduleId, chunkName, chunkHash) {
  if (loader.isLoaded(chunkName)) {
    return Promise.resolve(loader.require(moduleId));
  }
  if (inflight[chunkName]) {
    return inflight[chunkName].then(function () {
      return loader.require(moduleId);
    });
  }
  inflight[chunkName] = new Promise(function (resolve, reject) {
    var timer = setTimeout(function () {
      delete inflight[chunkName];
      reject(new Error('chunk load timeout: ' + chunkName));
    }, LOAD_TIMEOUT_MS);
    loader.load(chunkUrl(chunkName, chunkHash), function (err) {
      clearTimeout(timer);
      delete inflight[chunkName];
      if (err) {
        reject(err);
        return;
      }
      resolve();
    });
  });
  return inflight[chunkName].then(function () {
    return loader.require(moduleId);
  });
}
{{range $key, $value := .Extra}}
asyncRequire.{{$key}} = '{{$value}}';
{{end}}
module.exports = asyncRequire;
`
